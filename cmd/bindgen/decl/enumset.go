package decl

import (
	"fmt"
	"regexp"
)

// ResolveLegalValues expands a naming pattern into the enum values it admits.
// The pattern must match a whole value name. Matching nothing is an error: a
// parameter with no legal value cannot be called.
func ResolveLegalValues(pattern string, enum *TypeDescriptor) ([]EnumValue, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid value pattern %q: %v", pattern, err)
	}
	if enum.Kind != KindEnum && enum.Kind != KindResult {
		return nil, fmt.Errorf("value pattern %q applied to non-enum type %s", pattern, enum.Name)
	}
	var legal []EnumValue
	for _, v := range enum.Values {
		if re.MatchString(v.Name) {
			legal = append(legal, v)
		}
	}
	if len(legal) == 0 {
		return nil, fmt.Errorf("value pattern %q matches no value of %s", pattern, enum.Name)
	}
	return legal, nil
}
