package hal

import "strconv"

// FemtoMegaDriverName is the backend identifier of the Orbbec Femto
// Mega production sensor.
const FemtoMegaDriverName = "femto_mega"

// FemtoMegaDriver is the Orbbec Femto Mega backend variant. This is
// the production sensor: medical grade, wider depth range and an
// on-board thermal sensor exposed over UVC.
type FemtoMegaDriver struct {
	uvcCamera
}

// NewFemtoMegaDriver builds the Femto Mega backend. colorDevice and
// depthDevice are the /dev/video node indexes the sensor enumerates
// as.
func NewFemtoMegaDriver(colorDevice, depthDevice int) *FemtoMegaDriver {
	return &FemtoMegaDriver{uvcCamera{
		name:               FemtoMegaDriverName,
		colorDevice:        colorDevice,
		depthDevice:        depthDevice,
		reportsTemperature: true,
		caps: CameraCapabilities{
			ModelName:       "ORBBEC Femto Mega",
			SerialNumber:    "FM-USB" + strconv.Itoa(colorDevice),
			FirmwareVersion: "1.2.8",
			SupportedResolutions: []Resolution{
				{320, 288},
				{640, 480},
				{640, 576},
				{1024, 1024},
			},
			SupportedFPS:       []int{5, 15, 25, 30},
			MinDepthMM:         250,
			MaxDepthMM:         5460,
			DepthAccuracyMM:    1,
			DepthScale:         1.0,
			HasColorStream:     true,
			HasInfraredStream:  true,
			MaxFrameRate:       30,
			PowerConsumptionMW: 5500,
			MedicalGrade:       true,
			CalibrationDate:    "2024-11-02",
		},
	}}
}

var _ Driver = (*FemtoMegaDriver)(nil)
