// Package dataprocessing turns raw immunization datasets into the canonical
// record table and narrows it for analysis.
//
// # Architecture
//
// The package is organized into four components:
//
// 1. Parser: reads CSV and XLSX datasets into an untyped domain.RawTable
// 2. Validator: checks the schema, coerces cells, drops malformed rows and
// derives the fully-vaccinated flag and calendar fields
// 3. Filter: selects records by district, vaccine, date range, age group and gender
// 4. Quality: reports completeness of a loaded dataset
//
// # Usage
//
//	raw, err := dataprocessing.ReadFile("vaccination_data.csv", "")
//	if err != nil {
//	    return err
//	}
//
//	v := dataprocessing.NewValidator(logger, dataprocessing.DefaultValidatorConfig())
//	result, err := v.Validate(raw)
//	if err != nil {
//	    return err // missing columns
//	}
//
//	sel := domain.AllSelection()
//	sel.District = "Chandigarh"
//	subset := dataprocessing.Filter(result.Records, sel)
//
// The canonical slice returned by Validate is never modified by this package;
// Filter always returns a new slice.
package dataprocessing
