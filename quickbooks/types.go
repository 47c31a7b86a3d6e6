package quickbooks

// Ref is QBO's entity reference: an id plus an optional display name.
type Ref struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

// TimeActivity is the time-tracking resource a shift is pushed as. Update
// and Delete require both Id and the SyncToken returned by the last write
// (optimistic concurrency: a stale token makes QBO reject the write).
type TimeActivity struct {
	ID        string `json:"Id,omitempty"`
	SyncToken string `json:"SyncToken,omitempty"`

	TxnDate     string `json:"TxnDate" validate:"required"`
	NameOf      string `json:"NameOf" validate:"required,oneof=Employee Vendor"`
	EmployeeRef *Ref   `json:"EmployeeRef,omitempty" validate:"required"`
	CustomerRef *Ref   `json:"CustomerRef,omitempty"`
	ClassRef    *Ref   `json:"ClassRef,omitempty"`

	StartTime   string `json:"StartTime,omitempty"`
	EndTime     string `json:"EndTime,omitempty"`
	Hours       int    `json:"Hours" validate:"min=0"`
	Minutes     int    `json:"Minutes" validate:"min=0,max=59"`
	Description string `json:"Description,omitempty"`
}

type Employee struct {
	ID          string `json:"Id"`
	DisplayName string `json:"DisplayName"`
	Active      bool   `json:"Active"`
}

type Customer struct {
	ID          string `json:"Id"`
	DisplayName string `json:"DisplayName"`
	Active      bool   `json:"Active"`
}

type Class struct {
	ID     string `json:"Id"`
	Name   string `json:"Name"`
	Active bool   `json:"Active"`
}
