package sanitizer

import "staybook/pkg/model"

// NormalizeRequesterDetails returns a normalized copy of d. A phone that cannot
// be parsed is kept as typed so validation reports it instead of dropping it.
func NormalizeRequesterDetails(d *model.RequesterDetails) *model.RequesterDetails {
	if d == nil {
		return nil
	}

	out := &model.RequesterDetails{
		Name:  NormalizeName(d.Name),
		Email: NormalizeEmail(d.Email),
		Phone: TrimAndNormalize(d.Phone),
	}
	if phone := NormalizePhone(out.Phone); phone != "" {
		out.Phone = phone
	}

	if out.Name == "" && out.Email == "" && out.Phone == "" {
		return nil
	}
	return out
}
