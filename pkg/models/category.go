package models

// RawCategory is one record of the upstream category list:
//
//	{"cid": 3, "category_name": "Sayur", "category_image": "https://..."}
type RawCategory map[string]any

type Category struct {
	CID   *int   `json:"cid"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Is reports whether c has the given cid.
func (c Category) Is(cid int) bool {
	return c.CID != nil && *c.CID == cid
}
