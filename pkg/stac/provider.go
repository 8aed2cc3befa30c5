package stac

import "slices"

// Provider represents a STAC Collection provider.
type Provider struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	URL         string   `json:"url,omitempty"`

	AdditionalFields map[string]any `json:"-"`
}

var knownProviderFields = map[string]bool{
	"name": true, "description": true, "roles": true, "url": true,
}

func (p *Provider) Clone() *Provider {
	if p == nil {
		return nil
	}
	c := *p
	c.Roles = slices.Clone(p.Roles)
	c.AdditionalFields = deepCopyMap(p.AdditionalFields)
	return &c
}

func (p *Provider) UnmarshalJSON(data []byte) error {
	type providerAlias Provider
	var aux providerAlias
	extras, err := unmarshalWithExtras(data, &aux, knownProviderFields)
	if err != nil {
		return err
	}
	*p = Provider(aux)
	p.AdditionalFields = extras
	return nil
}

func (p Provider) MarshalJSON() ([]byte, error) {
	type providerAlias Provider
	return marshalWithExtras(providerAlias(p), p.AdditionalFields)
}
