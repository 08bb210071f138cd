package rig

// Config describes a stereo camera rig aimed at a target from a fixed
// standoff distance. Once validated it is treated as immutable; all derived
// quantities are pure functions of these fields.
type Config struct {
	BaselineM   float64 `yaml:"baseline_m"`
	StandoffM   float64 `yaml:"standoff_m"`
	ImageWidth  int     `yaml:"image_width"`
	ImageHeight int     `yaml:"image_height"`
	HFOVDeg     float64 `yaml:"hfov_deg"`
	PixelPitchM float64 `yaml:"pixel_pitch_m"`
	NearClipM   float64 `yaml:"near_clip_m"`
	FarClipM    float64 `yaml:"far_clip_m"`
}

// Validate checks every field range. It reports the first violation as a
// ConfigurationError.
func (c Config) Validate() error {
	switch {
	case c.BaselineM <= 0:
		return configErr("baseline", c.BaselineM, "must be positive")
	case c.StandoffM <= 0:
		return configErr("standoff", c.StandoffM, "must be positive")
	case c.ImageWidth <= 0:
		return configErr("image_width", float64(c.ImageWidth), "must be positive")
	case c.ImageHeight <= 0:
		return configErr("image_height", float64(c.ImageHeight), "must be positive")
	case c.HFOVDeg <= 0 || c.HFOVDeg >= 180:
		return configErr("hfov_deg", c.HFOVDeg, "must be in (0, 180)")
	case c.PixelPitchM <= 0:
		return configErr("pixel_pitch", c.PixelPitchM, "must be positive")
	case c.NearClipM <= 0:
		return configErr("near_clip", c.NearClipM, "must be positive")
	case c.FarClipM <= c.NearClipM:
		return configErr("far_clip", c.FarClipM, "must be greater than near clip")
	}
	return nil
}

// FocalLengthM returns the physical focal length in meters.
func (c Config) FocalLengthM() (float64, error) {
	return FocalLength(c.ImageWidth, c.HFOVDeg, c.PixelPitchM)
}

// FocalLengthMM returns the physical focal length in millimeters, the unit
// camera prims carry.
func (c Config) FocalLengthMM() (float64, error) {
	f, err := c.FocalLengthM()
	if err != nil {
		return 0, err
	}
	return f * metersToMM, nil
}

// FocalLengthPx returns the focal length expressed in pixels.
func (c Config) FocalLengthPx() (float64, error) {
	f, err := c.FocalLengthM()
	if err != nil {
		return 0, err
	}
	return f / c.PixelPitchM, nil
}

// Aperture returns the horizontal and vertical sensor aperture in millimeters.
func (c Config) Aperture() (hMM, vMM float64, err error) {
	return SensorAperture(c.ImageWidth, c.ImageHeight, c.PixelPitchM)
}

// Offsets returns the left and right camera offsets along the baseline axis.
func (c Config) Offsets() (left, right float64, err error) {
	return StereoOffsets(c.BaselineM)
}
