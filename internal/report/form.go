package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/fieldlog/internal/compliance"
	"github.com/julianstephens/fieldlog/internal/constants"
	"github.com/julianstephens/fieldlog/internal/models"
)

// Field names of the monthly fieldwork verification form.
const (
	FieldTraineeName        = "TRAINEE_NAME"
	FieldTraineeID          = "TRAINEE_BACB_ID"
	FieldMonthYear          = "TRAINEE_CERTIFICATE_MONTH/YEAR"
	FieldState              = "TRAINEE_FIELDWORK_STATE"
	FieldCountry            = "TRAINEE_FIELDWORK_COUNTRY"
	FieldSupervisorName     = "RESPONSIBLE_SUPERVISOR_NAME"
	FieldSupervisorID       = "RESPONSIBLE_SUPERVISOR_BACB_ID"
	FieldIndependentHours   = "INDEPENDENT_HOURS"
	FieldSupervisedHours    = "SUPERVISED_HOURS"
	FieldTotalHours         = "TOTAL_FIELDWORK"
	FieldPercentSupervised  = "PERCENT_HOURS_SUPERVISED"
	FieldTraineeSignDate    = "TRAINEE_SIGNATURE_DATE"
	FieldSupervisorSignDate = "SUPERVISOR_SIGNATURE_DATE"
)

// FormFieldOrder is the order fields appear on the printed form.
var FormFieldOrder = []string{
	FieldTraineeName,
	FieldTraineeID,
	FieldMonthYear,
	FieldState,
	FieldCountry,
	FieldSupervisorName,
	FieldSupervisorID,
	FieldIndependentHours,
	FieldSupervisedHours,
	FieldTotalHours,
	FieldPercentSupervised,
	FieldTraineeSignDate,
	FieldSupervisorSignDate,
}

var ErrNotMonthly = errors.New("verification forms are built from a monthly snapshot")

// FormFields fills the verification form for one month. sup may be nil when
// no responsible supervisor is configured. The supervisor signature date is
// always left blank.
func FormFields(settings models.Settings, sup *models.Supervisor, snap compliance.Snapshot, signed time.Time) (map[string]string, error) {
	if snap.Period != compliance.PeriodMonth || snap.Month == nil {
		return nil, ErrNotMonthly
	}

	country := settings.FieldworkCountry
	if country == "" {
		country = constants.DefaultFieldworkCountry
	}

	fields := map[string]string{
		FieldTraineeName:        settings.TraineeName,
		FieldTraineeID:          settings.TraineeID,
		FieldMonthYear:          snap.Month.Label(),
		FieldState:              settings.FieldworkState,
		FieldCountry:            country,
		FieldSupervisorName:     "",
		FieldSupervisorID:       "",
		FieldIndependentHours:   fmt.Sprintf("%.2f", snap.IndependentHours),
		FieldSupervisedHours:    fmt.Sprintf("%.2f", snap.SupervisedHours),
		FieldTotalHours:         fmt.Sprintf("%.2f", snap.TotalHours),
		FieldPercentSupervised:  fmt.Sprintf("%.1f%%", snap.ActualRatio*100),
		FieldTraineeSignDate:    signed.Format(constants.DateFormat),
		FieldSupervisorSignDate: "",
	}
	if sup != nil {
		fields[FieldSupervisorName] = sup.Name
		fields[FieldSupervisorID] = sup.CredentialID
	}
	return fields, nil
}

// FormText lays the fields out as aligned "NAME: value" lines.
func FormText(fields map[string]string) string {
	width := 0
	for _, name := range FormFieldOrder {
		width = max(width, len(name))
	}
	var b strings.Builder
	for _, name := range FormFieldOrder {
		fmt.Fprintf(&b, "%-*s  %s\n", width+1, name+":", fields[name])
	}
	return b.String()
}
