//go:build otghs_host

package otghs

import "github.com/ardnew/otghs/device/hal"

// BuildMode is the role Send transmits in. Host builds send on OUT
// endpoints.
const BuildMode = hal.ModeHost

const (
	sendDir  = hal.DirOut
	sendWIP  = hal.EndpointStateDataOutWIP
	sendDone = hal.EndpointStateDataOut
)
