package config

// SecretStringValue replaces secret in every printed form.
const SecretStringValue = "<secret>"

// SecretString holds credentials (NATS password or token, Redis password).
// Value is only available through explicit conversion to string, dumps and
// logs show a placeholder.
type SecretString string

func (s SecretString) mask() string {
	if len(s) == 0 {
		return ""
	}
	return SecretStringValue
}

// String implements fmt.Stringer.
func (s SecretString) String() string {
	return s.mask()
}

// MarshalJSON hides value, empty secret becomes null.
func (s SecretString) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte(`"` + SecretStringValue + `"`), nil
}

// MarshalYAML hides value, empty secret is omitted.
func (s SecretString) MarshalYAML() (any, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return SecretStringValue, nil
}
