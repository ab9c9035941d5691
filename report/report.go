// Package report exports back-office listings to xlsx workbooks for
// the accountant.
package report

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/salihate/backoffice/salaries"
	"github.com/salihate/backoffice/workers"
)

const defaultSheet = "Sheet1"

// WorkersWorkbook renders the roster as a single-sheet workbook.
func WorkersWorkbook(list []workers.Worker) (*excelize.File, error) {
	file := excelize.NewFile()
	sheet := "Travailleurs"
	if err := file.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, errors.Wrap(err, "[report.WorkersWorkbook] SetSheetName")
	}

	headers := []any{"Nom", "Prenom", "Poste", "Contact", "Site", "Date embauche", "Salaire de base", "Statut"}
	if err := file.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, errors.Wrap(err, "[report.WorkersWorkbook] header row")
	}

	for i, worker := range list {
		row := []any{
			worker.Nom,
			worker.Prenom,
			worker.Poste,
			worker.Contact,
			worker.SiteAffectation,
			worker.DateEmbauche,
			worker.SalaireBase,
			string(worker.Statut),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, errors.Wrapf(err, "[report.WorkersWorkbook] row %d", i+2)
		}
	}
	return file, nil
}

// SalariesWorkbook renders one period's payroll as a workbook.
func SalariesWorkbook(list []salaries.Salary, mois, annee int) (*excelize.File, error) {
	file := excelize.NewFile()
	sheet := fmt.Sprintf("Salaires %02d-%d", mois, annee)
	if err := file.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, errors.Wrap(err, "[report.SalariesWorkbook] SetSheetName")
	}

	headers := []any{"Travailleur", "Mois", "Annee", "Salaire de base", "Primes", "Deductions", "Salaire net", "Statut", "Mode de paiement", "Reference"}
	if err := file.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, errors.Wrap(err, "[report.SalariesWorkbook] header row")
	}

	for i, salary := range list {
		workerName := salary.WorkerID
		if salary.Worker != nil {
			workerName = salary.Worker.Prenom + " " + salary.Worker.Nom
		}
		row := []any{
			workerName,
			salary.Mois,
			salary.Annee,
			salary.SalaireBase,
			salary.Primes,
			salary.Deductions,
			salary.SalaireNet,
			string(salary.Statut),
			string(salary.ModePaiement),
			salary.ReferencePaiement,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, errors.Wrapf(err, "[report.SalariesWorkbook] row %d", i+2)
		}
	}
	return file, nil
}
