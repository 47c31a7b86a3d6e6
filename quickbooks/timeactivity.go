package quickbooks

import (
	"encoding/json"
	"errors"
	"fmt"
)

type TimeActivityEndpoint struct {
	transport *Transport
}

type timeActivityResponse struct {
	TimeActivity *TimeActivity `json:"TimeActivity"`
}

// Create pushes a new TimeActivity and returns it with the provider-assigned
// Id and SyncToken.
func (e *TimeActivityEndpoint) Create(ta *TimeActivity) (*TimeActivity, error) {
	if ta.ID != "" {
		return nil, errors.New("create called with an existing id, use Update")
	}
	return e.post(ta, nil)
}

// Update performs a full update; Id and the latest SyncToken are mandatory.
func (e *TimeActivityEndpoint) Update(ta *TimeActivity) (*TimeActivity, error) {
	if ta.ID == "" || ta.SyncToken == "" {
		return nil, errors.New("update requires id and sync token")
	}
	return e.post(ta, nil)
}

// Delete removes a TimeActivity; QBO models this as a POST with
// operation=delete.
func (e *TimeActivityEndpoint) Delete(id, syncToken string) error {
	if id == "" || syncToken == "" {
		return errors.New("delete requires id and sync token")
	}
	payload := &TimeActivity{ID: id, SyncToken: syncToken}
	_, err := e.transport.Post("/timeactivity", payload, map[string]string{"operation": "delete"})
	return err
}

func (e *TimeActivityEndpoint) post(ta *TimeActivity, query map[string]string) (*TimeActivity, error) {
	resp, err := e.transport.Post("/timeactivity", ta, query)
	if err != nil {
		return nil, err
	}

	var result timeActivityResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode time activity response: %w", err)
	}
	if result.TimeActivity == nil {
		return nil, errors.New("time activity missing from response")
	}
	return result.TimeActivity, nil
}
