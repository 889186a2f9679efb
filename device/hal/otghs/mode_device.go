//go:build !otghs_host

package otghs

import "github.com/ardnew/otghs/device/hal"

// BuildMode is the role Send transmits in. Device builds send on IN
// endpoints; build with the otghs_host tag for host mode.
const BuildMode = hal.ModeDevice

const (
	sendDir  = hal.DirIn
	sendWIP  = hal.EndpointStateDataInWIP
	sendDone = hal.EndpointStateDataIn
)
