package sfmc

import "fmt"

// AuthError reports a failed client-credentials token exchange. StatusCode
// is zero when no response was received.
type AuthError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sfmc auth failed: %v", e.Err)
	}
	return fmt.Sprintf("sfmc auth failed: status %v: %v", e.StatusCode, e.Body)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// UploadError reports a rejected or undelivered rowset upload.
type UploadError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sfmc upload failed: %v", e.Err)
	}
	return fmt.Sprintf("sfmc upload failed: status %v: %v", e.StatusCode, e.Body)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
