package stac

import "slices"

// Asset is a file referenced by an Item or Collection. Relative hrefs are
// interpreted against the owner's self href.
type Asset struct {
	Href        string   `json:"href"`
	MediaType   string   `json:"type,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Roles       []string `json:"roles,omitempty"`

	// AdditionalFields holds foreign members from extensions (e.g., "eo:bands").
	AdditionalFields map[string]any `json:"-"`
}

var knownAssetFields = map[string]bool{
	"href": true, "type": true, "title": true, "description": true, "roles": true,
}

// NewAsset creates an asset pointing at href.
func NewAsset(href, mediaType string, roles ...string) *Asset {
	return &Asset{Href: href, MediaType: mediaType, Roles: roles}
}

// HasRole reports whether the asset carries role.
func (a *Asset) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// AbsoluteHref resolves the asset href against ownerHref.
func (a *Asset) AbsoluteHref(ownerHref string) string {
	return AbsoluteHref(a.Href, ownerHref)
}

// Clone returns a deep copy of the asset.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	c := *a
	c.Roles = slices.Clone(a.Roles)
	c.AdditionalFields = deepCopyMap(a.AdditionalFields)
	return &c
}

// UnmarshalJSON implements custom unmarshaling to capture foreign members.
func (a *Asset) UnmarshalJSON(data []byte) error {
	type assetAlias Asset
	var aux assetAlias
	extras, err := unmarshalWithExtras(data, &aux, knownAssetFields)
	if err != nil {
		return err
	}
	*a = Asset(aux)
	a.AdditionalFields = extras
	return nil
}

// MarshalJSON implements custom marshaling to include foreign members.
func (a Asset) MarshalJSON() ([]byte, error) {
	type assetAlias Asset
	return marshalWithExtras(assetAlias(a), a.AdditionalFields)
}

func cloneAssets(assets map[string]*Asset) map[string]*Asset {
	if assets == nil {
		return nil
	}
	out := make(map[string]*Asset, len(assets))
	for k, a := range assets {
		out[k] = a.Clone()
	}
	return out
}

func assetsFromDict(v any) (map[string]*Asset, error) {
	if v == nil {
		return nil, nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, structural("assets must be an object, got %T", v)
	}
	assets := make(map[string]*Asset, len(raw))
	for key, val := range raw {
		var a Asset
		if err := decodeValue(val, &a); err != nil {
			return nil, structural("asset %q: %v", key, err)
		}
		assets[key] = &a
	}
	return assets, nil
}

func assetsToDict(assets map[string]*Asset) (map[string]any, error) {
	out := make(map[string]any, len(assets))
	for key, a := range assets {
		if a == nil {
			continue
		}
		v, err := encodeValue(a)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// rebaseAssets rewrites relative asset hrefs written against oldBase so they
// keep pointing at the same file from newBase.
func rebaseAssets(assets map[string]*Asset, oldBase, newBase string) {
	if oldBase == "" || oldBase == newBase {
		return
	}
	for _, a := range assets {
		if a == nil || a.Href == "" || IsAbsoluteHref(a.Href) {
			continue
		}
		abs := AbsoluteHref(a.Href, oldBase)
		if rel, ok := RelativeHref(abs, newBase); ok && newBase != "" {
			a.Href = rel
		} else {
			a.Href = abs
		}
	}
}

func makeAssetHrefsRelative(assets map[string]*Asset, base string) {
	for _, a := range assets {
		if a == nil || !IsAbsoluteHref(a.Href) {
			continue
		}
		if rel, ok := RelativeHref(a.Href, base); ok {
			a.Href = rel
		}
	}
}

func makeAssetHrefsAbsolute(assets map[string]*Asset, base string) {
	for _, a := range assets {
		if a == nil {
			continue
		}
		a.Href = AbsoluteHref(a.Href, base)
	}
}
