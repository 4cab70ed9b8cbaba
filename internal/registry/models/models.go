package models

import "strings"

// Collections written by the mockup loader
const (
	RedfishObjectCollection = "RedfishObject"
	ODataFileCollection     = "odata_file"
	MetadataFileCollection  = "metadata_file"
)

// Document is one JSON document carrying @odata.type, found while scanning a
// registry or mockup directory
type Document struct {
	Path      string         `json:"path"`
	ID        string         `json:"id"`
	ODataID   string         `json:"odata_id,omitempty"`
	Name      string         `json:"name"`
	ODataType string         `json:"odata_type"`
	Version   string         `json:"version,omitempty"`
	Body      map[string]any `json:"-"`
}

// Collection is the collection the document is stored in: the last segment
// of its @odata.type
//
//	#PrivilegeRegistry.v1_1_4.PrivilegeRegistry -> PrivilegeRegistry
func (d Document) Collection() string {
	t := d.ODataType
	if i := strings.LastIndex(t, "."); i >= 0 {
		t = t[i+1:]
	}
	return strings.TrimPrefix(t, "#")
}

// MockupCollection is where a mockup document is stored: addressable
// resources (those with an @odata.id) all share RedfishObject, anything else
// goes to the collection named by its type.
func (d Document) MockupCollection() string {
	if d.ODataID != "" {
		return RedfishObjectCollection
	}
	return d.Collection()
}

// ServiceFile is a mockup file stored verbatim as {data: <content>}
type ServiceFile struct {
	Path       string `json:"path"`
	Collection string `json:"collection"`
	Data       string `json:"-"`
}

// MockupReport summarizes one mockup load
type MockupReport struct {
	Scanned   int            `json:"scanned"`
	Documents []Document     `json:"-"`
	Files     []ServiceFile  `json:"files,omitempty"`
	Skipped   int            `json:"skipped"` // message registries left to the registry loader
	Stored    map[string]int `json:"stored"`
}

// LoadReport summarizes one registry load
type LoadReport struct {
	Scanned  int            `json:"scanned"`
	Selected []Document     `json:"selected"`
	Skipped  int            `json:"skipped"`
	Stored   map[string]int `json:"stored"` // documents per collection
}
