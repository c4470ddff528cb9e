// Package identity resolves the device's registration with the backend.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"pilotmgr"
	"pilotmgr/params"
)

// Store is the subset of the parameter store the registrar uses.
type Store interface {
	GetString(key string) (string, error)
	PutString(key, value string) error
}

// Issuer obtains a dongle id for the device serial from the backend.
type Issuer interface {
	Issue(ctx context.Context, serial string) (string, error)
}

// SpinnerFunc shows registration progress for serial while issue runs and
// returns issue's result.
type SpinnerFunc func(ctx context.Context, serial string, issue func(ctx context.Context) (string, error)) (string, error)

type Option func(*Registrar)

func WithIssuer(i Issuer) Option {
	return func(r *Registrar) { r.issuer = i }
}

func WithSpinner(f SpinnerFunc) Option {
	return func(r *Registrar) { r.spinner = f }
}

// WithSerialSources overrides the files consulted for the hardware serial.
func WithSerialSources(paths ...string) Option {
	return func(r *Registrar) { r.serialSources = paths }
}

// Registrar resolves and persists the device identity.
type Registrar struct {
	store         Store
	issuer        Issuer
	spinner       SpinnerFunc
	serialSources []string
}

func NewRegistrar(store Store, opts ...Option) *Registrar {
	r := &Registrar{
		store:         store,
		serialSources: []string{"/proc/device-tree/serial-number", "/etc/machine-id"},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Register returns the device's dongle id. A registered id already in the
// store wins. Without an issuer the device stays unregistered, which is a
// valid outcome; an empty id from the issuer is an error.
func (r *Registrar) Register(ctx context.Context, interactive bool) (string, error) {
	existing, err := r.store.GetString(params.DongleID)
	if err != nil {
		return "", fmt.Errorf("read dongle id: %w", err)
	}
	if pilotmgr.IsRegistered(existing) {
		return existing, nil
	}

	if r.issuer == nil {
		slog.Info("no registration backend configured, running unregistered")
		if err := r.store.PutString(params.DongleID, pilotmgr.UnregisteredDongleID); err != nil {
			return "", fmt.Errorf("persist dongle id: %w", err)
		}
		return pilotmgr.UnregisteredDongleID, nil
	}

	serial := r.Serial()
	issue := func(ctx context.Context) (string, error) {
		return r.issuer.Issue(ctx, serial)
	}
	var id string
	if interactive && r.spinner != nil {
		id, err = r.spinner(ctx, serial, issue)
	} else {
		id, err = issue(ctx)
	}
	if err != nil {
		return "", fmt.Errorf("issue dongle id: %w", err)
	}
	if id == "" {
		return "", errors.New("issue dongle id: backend returned an empty id")
	}

	if err := r.store.PutString(params.DongleID, id); err != nil {
		return "", fmt.Errorf("persist dongle id: %w", err)
	}
	slog.Info("device registered", "dongle_id", id)
	return id, nil
}

// Serial returns the hardware serial, caching it in the store on first read.
// It returns an empty string when no source is readable.
func (r *Registrar) Serial() string {
	if s, err := r.store.GetString(params.HardwareSerial); err == nil && s != "" {
		return s
	}
	for _, path := range r.serialSources {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		s := strings.TrimRight(strings.TrimSpace(string(data)), "\x00")
		if s == "" {
			continue
		}
		if err := r.store.PutString(params.HardwareSerial, s); err != nil {
			slog.Warn("persist hardware serial", "err", err)
		}
		return s
	}
	return ""
}
