package service

import (
	"errors"
	"strings"

	"github.com/alexanderramin/mindflow/internal/store"
)

// Session is the explicit context every core operation runs in: which
// device it acts for and which store it talks to.
type Session struct {
	DeviceID string
	Store    store.Client
	Paths    store.Paths
}

// NewSession binds a device identity to a store connection.
func NewSession(deviceID string, client store.Client) (*Session, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, errors.New("session: device id is required")
	}
	if client == nil {
		return nil, errors.New("session: store is required")
	}
	return &Session{
		DeviceID: deviceID,
		Store:    client,
		Paths:    store.NewPaths(deviceID),
	}, nil
}
