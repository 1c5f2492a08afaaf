// Package browserinfo classifies a User-Agent header into the device
// capability flags exposed to components through the $Browser provider.
package browserinfo

import "strings"

// FormFactor is the coarse device class used for layout decisions.
type FormFactor string

const (
	Desktop FormFactor = "DESKTOP"
	Tablet  FormFactor = "TABLET"
	Phone   FormFactor = "PHONE"
)

// OS identifies the client operating system family.
type OS string

const (
	OSWindows      OS = "windows"
	OSWindowsPhone OS = "windows phone"
	OSMacOS        OS = "macos"
	OSiOS          OS = "ios"
	OSAndroid      OS = "android"
	OSFireOS       OS = "fireos"
	OSChromeOS     OS = "chromeos"
	OSLinux        OS = "linux"
	OSUnknown      OS = "unknown"
)

// Info is the classification of a single User-Agent string.
// The zero value describes an unknown desktop client.
type Info struct {
	UserAgent  string
	FormFactor FormFactor
	OS         OS
	IsTablet   bool
	IsPhone    bool
	IsAndroid  bool
	IsIPhone   bool
	IsIPad     bool
	IsIOS      bool
	IsBot      bool
}

// Parse classifies ua. It never fails: an empty or unrecognized header yields
// a desktop form factor with every device flag false.
func Parse(ua string) Info {
	lower := strings.ToLower(strings.TrimSpace(ua))
	info := Info{
		UserAgent:  ua,
		FormFactor: Desktop,
		OS:         parseOS(lower),
	}
	if lower == "" {
		return info
	}

	info.IsIPad = strings.Contains(lower, "ipad")
	info.IsIPhone = strings.Contains(lower, "iphone") && !strings.Contains(lower, "ipod")
	info.IsIOS = info.OS == OSiOS
	info.IsAndroid = strings.Contains(lower, "android")

	switch {
	case info.IsIPad:
		info.IsTablet = true
	case info.IsIPhone:
		info.IsPhone = true
	case botKeywords.contains(lower):
		info.IsBot = true
	case info.IsAndroid:
		// Android tablets omit the "Mobile" token that phones carry.
		info.IsPhone = strings.Contains(lower, "mobile")
		info.IsTablet = !info.IsPhone
	case tabletKeywords.contains(lower):
		info.IsTablet = true
	case strings.Contains(lower, "windows") && !strings.Contains(lower, "windows phone") && windowsTouchKeywords.contains(lower):
		info.IsTablet = true
	case phoneKeywords.contains(lower):
		info.IsPhone = true
	}

	switch {
	case info.IsTablet:
		info.FormFactor = Tablet
	case info.IsPhone:
		info.FormFactor = Phone
	}
	return info
}

func parseOS(lower string) OS {
	if lower == "" {
		return OSUnknown
	}
	for _, rule := range osRules {
		if rule.keywords.contains(lower) {
			return rule.os
		}
	}
	return OSUnknown
}
