// Copyright 2016 Canonical Ltd.
// Licensed under the LGPLv3, see LICENCE file for details.

package gomaasws

// Action describes the kind of mutation a notification reports.
type Action int

const (
	// ActionUnknown is the zero value, returned for unrecognized wire
	// spellings. Notifications carrying it are dropped with a warning.
	ActionUnknown Action = iota
	ActionCreated
	ActionUpdated
	ActionDeleted
)

// parseAction maps a wire action spelling to its Action. Past-tense
// spellings and the present-tense ones sent by older regions are both
// accepted; anything else is ActionUnknown.
func parseAction(value string) Action {
	switch value {
	case "create", "created":
		return ActionCreated
	case "update", "updated":
		return ActionUpdated
	case "delete", "deleted":
		return ActionDeleted
	}
	return ActionUnknown
}

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case ActionCreated:
		return "created"
	case ActionUpdated:
		return "updated"
	case ActionDeleted:
		return "deleted"
	}
	return "unknown"
}

// MachineStatus represents the lifecycle status of a machine. The numeric
// values match the status codes the region sends.
type MachineStatus int

const (
	MachineStatusUnknown MachineStatus = iota - 1
	MachineStatusNew
	MachineStatusCommissioning
	MachineStatusFailedCommissioning
	MachineStatusMissing
	MachineStatusReady
	MachineStatusReserved
	MachineStatusDeployed
	MachineStatusRetired
	MachineStatusBroken
	MachineStatusDeploying
	MachineStatusAllocated
	MachineStatusFailedDeployment
	MachineStatusReleasing
	MachineStatusFailedReleasing
	MachineStatusDiskErasing
	MachineStatusFailedDiskErasing
	MachineStatusRescueMode
	MachineStatusEnteringRescueMode
	MachineStatusFailedEnteringRescueMode
	MachineStatusExitingRescueMode
	MachineStatusFailedExitingRescueMode
	MachineStatusTesting
	MachineStatusFailedTesting
)

// machineStatus maps a region status code to its MachineStatus. Codes
// outside the known vocabulary map to MachineStatusUnknown rather than
// leaking a raw number.
func machineStatus(code int) MachineStatus {
	status := MachineStatus(code)
	if status < MachineStatusNew || status > MachineStatusFailedTesting {
		return MachineStatusUnknown
	}
	return status
}

// String implements fmt.Stringer.
func (s MachineStatus) String() string {
	switch s {
	case MachineStatusNew:
		return "New"
	case MachineStatusCommissioning:
		return "Commissioning"
	case MachineStatusFailedCommissioning:
		return "Failed commissioning"
	case MachineStatusMissing:
		return "Missing"
	case MachineStatusReady:
		return "Ready"
	case MachineStatusReserved:
		return "Reserved"
	case MachineStatusDeployed:
		return "Deployed"
	case MachineStatusRetired:
		return "Retired"
	case MachineStatusBroken:
		return "Broken"
	case MachineStatusDeploying:
		return "Deploying"
	case MachineStatusAllocated:
		return "Allocated"
	case MachineStatusFailedDeployment:
		return "Failed deployment"
	case MachineStatusReleasing:
		return "Releasing"
	case MachineStatusFailedReleasing:
		return "Failed releasing"
	case MachineStatusDiskErasing:
		return "Disk erasing"
	case MachineStatusFailedDiskErasing:
		return "Failed disk erasing"
	case MachineStatusRescueMode:
		return "Rescue mode"
	case MachineStatusEnteringRescueMode:
		return "Entering rescue mode"
	case MachineStatusFailedEnteringRescueMode:
		return "Failed entering rescue mode"
	case MachineStatusExitingRescueMode:
		return "Exiting rescue mode"
	case MachineStatusFailedExitingRescueMode:
		return "Failed exiting rescue mode"
	case MachineStatusTesting:
		return "Testing"
	case MachineStatusFailedTesting:
		return "Failed testing"
	}
	return "Unknown"
}
