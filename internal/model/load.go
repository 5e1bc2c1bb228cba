// Package model holds the load record and the shared value types used by the
// flag engine, the cluster aggregator and the API.
package model

import (
	"strings"
	"time"
)

// Load statuses that carry business meaning for flags and aggregates.
const (
	StatusCanceled         = "Canceled"
	StatusTONU             = "TONU"
	StatusBilled           = "Billed"
	StatusPendingToBill    = "Pending to Bill"
	StatusPaid             = "Paid"
	StatusMissingPaperwork = "Missing Paperwork"
	StatusBilledPendingAcc = "Billed - Pending Acc."
	StatusOpenBalance      = "Open Balance"
)

// Load is a single freight shipment as exported by the dispatch backend.
type Load struct {
	ID          LoadID `json:"id" csv:"id"`
	Driver      string `json:"driver,omitempty" csv:"driver"`
	Dispatcher  string `json:"dispatcher,omitempty" csv:"dispatcher"`
	Team        string `json:"team,omitempty" csv:"team"`
	CompanyName string `json:"company_name,omitempty" csv:"company_name"`

	PuDate string `json:"pu_date,omitempty" csv:"pu_date"`
	PuTime string `json:"pu_time,omitempty" csv:"pu_time"`
	DoDate string `json:"do_date,omitempty" csv:"do_date"`
	DoTime string `json:"do_time,omitempty" csv:"do_time"`

	PuLocation         string `json:"pu_location,omitempty" csv:"pu_location"`
	DoLocation         string `json:"do_location,omitempty" csv:"do_location"`
	StartLocationCity  string `json:"start_location_city,omitempty" csv:"start_location_city"`
	StartLocationState string `json:"start_location_state,omitempty" csv:"start_location_state"`

	PuLatitude  Coord `json:"pu_latitude" csv:"pu_latitude"`
	PuLongitude Coord `json:"pu_longitude" csv:"pu_longitude"`
	DoLatitude  Coord `json:"do_latitude" csv:"do_latitude"`
	DoLongitude Coord `json:"do_longitude" csv:"do_longitude"`

	Price         Number `json:"price" csv:"price"`
	TripMiles     Number `json:"trip_miles" csv:"trip_miles"`
	DeadheadMiles Number `json:"deadhead_miles" csv:"deadhead_miles"`
	RPMAll        Number `json:"rpm_all,omitempty" csv:"rpm_all"`

	Status       string `json:"status,omitempty" csv:"status"`
	ContractType string `json:"contract_type,omitempty" csv:"contract_type"`
}

// RPM returns the rate per mile, or 0 when price or trip miles do not allow it.
func (l Load) RPM() float64 {
	miles := float64(l.TripMiles)
	price := float64(l.Price)
	if miles <= 0 || price == 0 || !finite(miles) || !finite(price) {
		return 0
	}
	return price / miles
}

// TotalMiles is trip plus deadhead miles.
func (l Load) TotalMiles() float64 {
	return float64(l.TripMiles) + float64(l.DeadheadMiles)
}

// PickupDate is the calendar date of pickup in UTC.
func (l Load) PickupDate() (time.Time, bool) { return ParseDate(l.PuDate) }

// DropoffDate is the calendar date of delivery in UTC.
func (l Load) DropoffDate() (time.Time, bool) { return ParseDate(l.DoDate) }

// PickupAt combines the pickup date and pickup time for chronological ordering.
func (l Load) PickupAt() (time.Time, bool) {
	d, ok := ParseDate(l.PuDate)
	if !ok {
		return time.Time{}, false
	}
	return d.Add(clockOffset(l.PuTime, l.PuDate)), true
}

// IsCanceled reports whether the load never ran.
func (l Load) IsCanceled() bool { return strings.EqualFold(strings.TrimSpace(l.Status), StatusCanceled) }

// IsVoid reports whether the load is canceled or truck-ordered-not-used.
func (l Load) IsVoid() bool {
	return l.IsCanceled() || strings.EqualFold(strings.TrimSpace(l.Status), StatusTONU)
}

// DriverKey is the identity used to group a driver's loads.
func (l Load) DriverKey() string { return strings.ToLower(strings.TrimSpace(l.Driver)) }
