package services

import (
	"errors"
	"fmt"
)

// Step names a state of the install and update workflows
type Step string

const (
	StepPlanned               Step = "Planned"
	StepPrepared              Step = "Prepared"
	StepArtifactFetched       Step = "ArtifactFetched"
	StepVendorInstalled       Step = "VendorInstalled"
	StepConfigured            Step = "Configured"
	StepMapsInstalled         Step = "MapsInstalled"
	StepServiceRegistered     Step = "ServiceRegistered"
	StepAccessConfigured      Step = "AccessConfigured"
	StepFirewallOpened        Step = "FirewallOpened"
	StepPermissionsNormalized Step = "PermissionsNormalized"
	StepStarted               Step = "Started"

	StepBackedUp Step = "BackedUp"
	StepRestored Step = "Restored"
)

// ErrPortInUse is returned when an instance already owns the requested port
var ErrPortInUse = errors.New("port already has an instance")

// StepError reports the workflow step that failed. Steps completed before
// it are left in place.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepError(step Step, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Step: step, Err: err}
}
