package store

import (
	"fmt"
	"slices"

	"github.com/odyssey-erp/closeboard/internal/competency"
	"github.com/odyssey-erp/closeboard/internal/domain"
	"github.com/odyssey-erp/closeboard/internal/shared"
)

// Dataset is the complete mutable state: every company and every closing record.
type Dataset struct {
	Companies []domain.Company
	Records   []domain.ClosingRecord
}

// Clone copies both collections. Timestamp and notes pointers are shared; callers
// replace them instead of writing through them.
func (d *Dataset) Clone() Dataset {
	return Dataset{
		Companies: slices.Clone(d.Companies),
		Records:   slices.Clone(d.Records),
	}
}

// CompanyIndex returns the position of the company or -1.
func (d *Dataset) CompanyIndex(id string) int {
	return slices.IndexFunc(d.Companies, func(c domain.Company) bool { return c.ID == id })
}

// Company looks a company up by id.
func (d *Dataset) Company(id string) (domain.Company, bool) {
	if i := d.CompanyIndex(id); i >= 0 {
		return d.Companies[i], true
	}
	return domain.Company{}, false
}

// CodeTaken reports whether code is already registered, ignoring case and
// surrounding spaces.
func (d *Dataset) CodeTaken(code string) bool {
	code = domain.NormalizeCode(code)
	return slices.ContainsFunc(d.Companies, func(c domain.Company) bool { return domain.NormalizeCode(c.Code) == code })
}

// NormalizeCodes rewrites every company code to its stored form.
func (d *Dataset) NormalizeCodes() {
	for i := range d.Companies {
		d.Companies[i].Code = domain.NormalizeCode(d.Companies[i].Code)
	}
}

// RecordIndex returns the position of the (company, competency) record or -1.
func (d *Dataset) RecordIndex(companyID string, comp competency.YearMonth) int {
	return slices.IndexFunc(d.Records, func(r domain.ClosingRecord) bool {
		return r.CompanyID == companyID && r.Competency == comp
	})
}

// RecordsFor returns a company's records in storage order.
func (d *Dataset) RecordsFor(companyID string) []domain.ClosingRecord {
	var out []domain.ClosingRecord
	for _, r := range d.Records {
		if r.CompanyID == companyID {
			out = append(out, r)
		}
	}
	return out
}

// RemoveRecordsFor drops every record of a company and returns how many went.
func (d *Dataset) RemoveRecordsFor(companyID string) int {
	before := len(d.Records)
	d.Records = slices.DeleteFunc(d.Records, func(r domain.ClosingRecord) bool { return r.CompanyID == companyID })
	return before - len(d.Records)
}

// Check lists invariant violations: orphan records, duplicate pairs and duplicate codes.
func (d *Dataset) Check() []error {
	var problems []error
	codes := make(map[string]bool, len(d.Companies))
	ids := make(map[string]bool, len(d.Companies))
	for _, c := range d.Companies {
		if err := c.Validate(); err != nil {
			problems = append(problems, err)
		}
		code := domain.NormalizeCode(c.Code)
		if codes[code] {
			problems = append(problems, fmt.Errorf("%w: duplicate company code %s", shared.ErrDataConsistency, code))
		}
		codes[code] = true
		if ids[c.ID] {
			problems = append(problems, fmt.Errorf("%w: duplicate company id %s", shared.ErrDataConsistency, c.ID))
		}
		ids[c.ID] = true
	}
	type pair struct {
		company string
		comp    competency.YearMonth
	}
	seen := make(map[pair]bool, len(d.Records))
	for _, r := range d.Records {
		if !r.Competency.Valid() {
			problems = append(problems, fmt.Errorf("%w: record %s has competency %s", shared.ErrDataConsistency, r.ID, r.Competency))
			continue
		}
		if !ids[r.CompanyID] {
			problems = append(problems, fmt.Errorf("%w: record %s references unknown company %s", shared.ErrDataConsistency, r.ID, r.CompanyID))
			continue
		}
		key := pair{r.CompanyID, r.Competency}
		if seen[key] {
			problems = append(problems, fmt.Errorf("%w: duplicate record for company %s in %s", shared.ErrDataConsistency, r.CompanyID, r.Competency))
		}
		seen[key] = true
	}
	return problems
}
