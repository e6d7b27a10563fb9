package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"orderreturns/internal/errors"
	"orderreturns/pkg/contracts/domain"
)

var records = validator.New()

func checkRecord(kind string, i int, r any) error {
	if err := records.Struct(r); err != nil {
		return errors.NewAppValidationError(fmt.Sprintf("%s record %d: %v", kind, i, err)).
			WithContext("record", i)
	}
	return nil
}

// ValidateHistory checks the struct tags of every history record.
func ValidateHistory(entity domain.Entity, rs []domain.HistoryRecord) error {
	for i := range rs {
		if err := checkRecord(string(entity)+" history", i, rs[i]); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSalesClasses checks the struct tags of every sales-class record.
func ValidateSalesClasses(rs []domain.SalesClassRecord) error {
	for i := range rs {
		if err := checkRecord("sales class", i, rs[i]); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePredictions checks that every prediction is a binary label.
func ValidatePredictions(ps []domain.Prediction) error {
	for i := range ps {
		if err := checkRecord("prediction", i, ps[i]); err != nil {
			return err
		}
	}
	return nil
}
