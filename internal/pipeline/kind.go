package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind selects which content template a session runs and therefore which
// ordered stage sequence applies. Fixed at session creation.
type Kind string

const (
	KindProductAd         Kind = "product-ad"
	KindMechanismOfAction Kind = "mechanism-of-action"
	KindDoctorAd          Kind = "doctor-ad"
	KindSocialMediaClip   Kind = "social-media-clip"
	KindComplianceVideo   Kind = "compliance-video"
)

// Kinds returns every supported workflow kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindProductAd,
		KindMechanismOfAction,
		KindDoctorAd,
		KindSocialMediaClip,
		KindComplianceVideo,
	}
}

// ParseKind validates a wire value and returns the matching Kind.
func ParseKind(value string) (Kind, error) {
	candidate := Kind(strings.ToLower(strings.TrimSpace(value)))
	for _, kind := range Kinds() {
		if candidate == kind {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown workflow kind %q", value)
}

var titleCaser = cases.Title(language.English)

// Label returns a human-readable name for CLI and notification output.
func (k Kind) Label() string {
	return titleCaser.String(strings.ReplaceAll(string(k), "-", " "))
}
