// Package subscriber holds the subscriber rows read from the warehouse and the
// data extension records they are reshaped into.
package subscriber

// Row is a single subscriber as selected from the warehouse.
type Row struct {
	SubscriberKey string `json:"SUBSCRIBERKEY"`
	Email         string `json:"EMAIL"`
	FirstName     string `json:"FIRSTNAME"`
	LastName      string `json:"LASTNAME"`
}

type Keys struct {
	SubscriberKey string `json:"SubscriberKey"`
}

type Values struct {
	Email     string `json:"Email"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
}

// Record is one entry of a data extension rowset upsert.
type Record struct {
	Keys   Keys   `json:"keys"`
	Values Values `json:"values"`
}

func ToRecord(row Row) Record {
	return Record{
		Keys: Keys{SubscriberKey: row.SubscriberKey},
		Values: Values{
			Email:     row.Email,
			FirstName: row.FirstName,
			LastName:  row.LastName,
		},
	}
}

// ToRecords reshapes every row, in order. The result is never nil so an empty
// batch encodes as [].
func ToRecords(rows []Row) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, ToRecord(row))
	}
	return records
}
