package hal

import "strconv"

// D435DriverName is the backend identifier of the Intel RealSense
// D435 development sensor.
const D435DriverName = "d435"

// D435Driver is the RealSense D435 backend variant, used on
// development benches. It speaks plain UVC to the sensor's color and
// depth nodes.
type D435Driver struct {
	uvcCamera
}

// NewD435Driver builds the D435 backend. colorDevice and depthDevice
// are the /dev/video node indexes the sensor enumerates as.
func NewD435Driver(colorDevice, depthDevice int) *D435Driver {
	return &D435Driver{uvcCamera{
		name:        D435DriverName,
		colorDevice: colorDevice,
		depthDevice: depthDevice,
		caps: CameraCapabilities{
			ModelName:       "Intel RealSense D435",
			SerialNumber:    "D435-USB" + strconv.Itoa(colorDevice),
			FirmwareVersion: "5.13.0.50",
			SupportedResolutions: []Resolution{
				{424, 240},
				{640, 480},
				{848, 480},
				{1280, 720},
			},
			SupportedFPS:       []int{15, 30, 60, 90},
			MinDepthMM:         280,
			MaxDepthMM:         10000,
			DepthAccuracyMM:    2,
			DepthScale:         1.0, // Z16 units are millimeters
			HasColorStream:     true,
			HasInfraredStream:  true,
			MaxFrameRate:       90,
			PowerConsumptionMW: 3500,
			MedicalGrade:       false,
			CalibrationDate:    "2024-06-15",
		},
	}}
}

var _ Driver = (*D435Driver)(nil)
