package validation

import (
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/narvanalabs/domain-registry/internal/models"
)

// Hostnames are accepted only when every label is a valid DNS label, the name
// has at least two labels, and the top two labels are not numeric. Accepted
// hostnames are always returned lowercased.

// genHostnameLabel generates a valid label that always contains a letter, so
// it can sit anywhere in a hostname.
func genHostnameLabel() gopter.Gen {
	return gen.IntRange(1, 20).FlatMap(func(v interface{}) gopter.Gen {
		length := v.(int)
		return gen.SliceOfN(length, gen.IntRange(0, 36)).Map(func(chars []int) string {
			result := make([]byte, len(chars))
			for i, c := range chars {
				switch {
				case i == 0:
					// Leading letter keeps the label from being all digits
					result[i] = byte('a' + (c % 26))
				case i == len(chars)-1 || c < 26:
					if c < 26 {
						result[i] = byte('a' + c)
					} else {
						result[i] = byte('0' + (c % 10))
					}
				case c < 36:
					result[i] = byte('0' + (c - 26))
				case result[i-1] == '-':
					result[i] = 'x'
				default:
					result[i] = '-'
				}
			}
			return string(result)
		})
	}, reflect.TypeOf(""))
}

// genValidHostname generates a hostname of 2-5 valid labels.
func genValidHostname() gopter.Gen {
	return gen.IntRange(2, 5).FlatMap(func(v interface{}) gopter.Gen {
		return gen.SliceOfN(v.(int), genHostnameLabel())
	}, reflect.TypeOf([]string{})).Map(func(labels []string) string {
		return strings.Join(labels, ".")
	})
}

// genMixedCase randomly uppercases letters of s.
func genMixedCase(s string) gopter.Gen {
	return gen.SliceOfN(len(s), gen.Bool()).Map(func(flips []bool) string {
		b := []byte(s)
		for i, flip := range flips {
			if flip && b[i] >= 'a' && b[i] <= 'z' {
				b[i] = b[i] - 'a' + 'A'
			}
		}
		return string(b)
	})
}

func TestHostnameValidity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("valid hostnames are accepted unchanged", prop.ForAll(
		func(hostname string) bool {
			got, err := ValidateHostname(hostname)
			return err == nil && got == hostname
		},
		genValidHostname(),
	))

	properties.Property("wildcard prefix is accepted on valid hostnames", prop.ForAll(
		func(hostname string) bool {
			got, err := ValidateHostname("*." + hostname)
			return err == nil && got == "*."+hostname
		},
		genValidHostname(),
	))

	properties.Property("validation is case-insensitive and normalizes to lowercase", prop.ForAll(
		func(hostname string) bool {
			value, ok := genMixedCase(hostname).Sample()
			if !ok {
				return true
			}
			got, err := ValidateHostname(value.(string))
			return err == nil && got == hostname
		},
		genValidHostname(),
	))

	properties.Property("single labels are rejected", prop.ForAll(
		func(label string) bool {
			_, err := ValidateHostname(label)
			return err != nil
		},
		genHostnameLabel(),
	))

	properties.Property("numeric top-level labels are rejected", prop.ForAll(
		func(hostname string, tld uint16) bool {
			_, err := ValidateHostname(hostname + "." + strconv.Itoa(int(tld)))
			return err != nil
		},
		genValidHostname(),
		gen.UInt16(),
	))

	properties.Property("wildcards below the first label are rejected", prop.ForAll(
		func(left, right string) bool {
			_, err := ValidateHostname(left + ".*." + right)
			return err != nil
		},
		genHostnameLabel(),
		genValidHostname(),
	))

	properties.Property("consecutive hyphens are rejected", prop.ForAll(
		func(left, hostname string) bool {
			_, err := ValidateHostname(left + "--x." + hostname)
			if err == nil {
				return false
			}
			validationErr, ok := err.(*models.ValidationError)
			return ok && validationErr.Field == "domain"
		},
		genHostnameLabel(),
		genValidHostname(),
	))

	properties.TestingRun(t)
}
