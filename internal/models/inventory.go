package models

import "time"

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

type Product struct {
	ID           int64
	Name         string
	CurrentStock int
	MinStock     int
	MaxStock     int
}

type PurchaseRequest struct {
	ID          int64
	ProductID   int64
	Quantity    int
	RequesterID int64
	Status      RequestStatus
	CreatedAt   time.Time
}
