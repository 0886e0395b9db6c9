package pricing

import (
	"strings"
	"unicode"
)

// MPC is the widget's material/profile code, e.g. "_1_1" for aluminium mini.
type MPC string

const (
	MPCAluMini MPC = "_1_1"
	MPCAluMaxi MPC = "_2_1"
	MPCPVCMini MPC = "_1_2"
	MPCPVCMaxi MPC = "_2_2"
)

// CodeFor maps a material and profile to its MPC code.
func CodeFor(material Material, profile Profile) (MPC, bool) {
	switch {
	case material == MaterialAlu && profile == ProfileMini:
		return MPCAluMini, true
	case material == MaterialAlu && profile == ProfileMaxi:
		return MPCAluMaxi, true
	case material == MaterialPVC && profile == ProfileMini:
		return MPCPVCMini, true
	case material == MaterialPVC && profile == ProfileMaxi:
		return MPCPVCMaxi, true
	}
	return "", false
}

// ParseMPC validates a code string.
func ParseMPC(s string) (MPC, bool) {
	switch m := MPC(s); m {
	case MPCAluMini, MPCAluMaxi, MPCPVCMini, MPCPVCMaxi:
		return m, true
	}
	return "", false
}

// Material of the code.
func (m MPC) Material() Material {
	if strings.HasSuffix(string(m), "_1") {
		return MaterialAlu
	}
	return MaterialPVC
}

// Profile of the code.
func (m MPC) Profile() Profile {
	if strings.HasPrefix(string(m), "_1") {
		return ProfileMini
	}
	return ProfileMaxi
}

// ColorFieldKeywords are the substrings that identify the color radio group of m.
func (m MPC) ColorFieldKeywords() []string {
	mat, prof := string(m.Material()), string(m.Profile())
	return []string{
		"farbwahl_" + mat + "_" + prof,
		"farbwahl " + mat + " " + prof,
	}
}

// SpecialColorLabel reports whether a widget color value is marked as a
// special color, e.g. "Anthrazitgrau (S)" or "Sonderfarbe Moosgrün".
func SpecialColorLabel(value string) bool {
	v := strings.ToLower(value)
	return strings.Contains(v, "special") || strings.Contains(v, "sonder") || strings.Contains(v, "(s)")
}

func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}
