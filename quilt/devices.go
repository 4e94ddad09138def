package quilt

import (
	"sort"
	"strings"
)

// devices maps display names and their short aliases to quilt layouts.
var devices = map[string]Settings{
	"Looking Glass Go":            {Columns: 10, Rows: 6, Width: 4092, Height: 4092},
	"go":                          {Columns: 10, Rows: 6, Width: 4092, Height: 4092},
	"Looking Glass Portrait":      {Columns: 8, Rows: 6, Width: 3360, Height: 3360},
	"portrait":                    {Columns: 8, Rows: 6, Width: 3360, Height: 3360},
	`Looking Glass 16" Landscape`: {Columns: 7, Rows: 7, Width: 5999, Height: 5999},
	"16l":                         {Columns: 7, Rows: 7, Width: 5999, Height: 5999},
	`Looking Glass 16" Portrait`:  {Columns: 11, Rows: 6, Width: 5995, Height: 6000},
	"16p":                         {Columns: 11, Rows: 6, Width: 5995, Height: 6000},
	`Looking Glass 32" Landscape`: {Columns: 7, Rows: 7, Width: 8190, Height: 8190},
	"32l":                         {Columns: 7, Rows: 7, Width: 8190, Height: 8190},
	`Looking Glass 32" Portrait`:  {Columns: 11, Rows: 6, Width: 8184, Height: 8184},
	"32p":                         {Columns: 11, Rows: 6, Width: 8184, Height: 8184},
	`Looking Glass 65"`:           {Columns: 8, Rows: 9, Width: 8192, Height: 8192},
	"65":                          {Columns: 8, Rows: 9, Width: 8192, Height: 8192},
}

// LookupDevice returns the quilt layout for a device name or alias.
// Matching is exact first, then case-insensitive.
func LookupDevice(name string) (Settings, bool) {
	if s, ok := devices[name]; ok {
		return s, true
	}
	for k, s := range devices {
		if strings.EqualFold(k, name) {
			return s, true
		}
	}
	return Settings{}, false
}

// DeviceNames returns every known device name and alias, sorted.
func DeviceNames() []string {
	names := make([]string, 0, len(devices))
	for k := range devices {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
