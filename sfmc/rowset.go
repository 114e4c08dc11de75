package sfmc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/subscriberhub/sfmc-sync/subscriber"
)

func RowsetPath(externalKey string) string {
	return fmt.Sprintf("/hub/v1/dataevents/key:%v/rowset", url.PathEscape(externalKey))
}

// Upload posts the whole batch to the configured data extension in a single
// request and returns the remote response as JSON.
func (c *Client) Upload(ctx context.Context, records []subscriber.Record, token string) (json.RawMessage, error) {
	if records == nil {
		records = []subscriber.Record{}
	}
	req, err := c.newRequest(ctx, c.RestURL, RowsetPath(c.config.ExternalKey), records)
	if err != nil {
		return nil, &UploadError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	status, body, err := c.do(req)
	if err != nil {
		return nil, &UploadError{StatusCode: status, Err: err}
	}
	if !ok(status) {
		return nil, &UploadError{StatusCode: status, Body: snippet(body)}
	}
	return asJSON(body), nil
}

func asJSON(body []byte) json.RawMessage {
	switch {
	case len(body) == 0:
		return json.RawMessage("null")
	case json.Valid(body):
		return json.RawMessage(body)
	default:
		quoted, _ := json.Marshal(string(body))
		return json.RawMessage(quoted)
	}
}
