package grade

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StepPerGrade is added to the basic salary for every grade above the base grade.
const StepPerGrade int64 = 5000

// MaxBaseSalary bounds the base salary so that a gross salary, and a batch
// total over many employees, stays well inside int64.
const MaxBaseSalary int64 = 1_000_000_000_000

var (
	hraRate     = decimal.RequireFromString("0.20")
	medicalRate = decimal.RequireFromString("0.15")
)

// SalaryBreakdown is the monthly salary composition for one grade, in minor
// currency units.
type SalaryBreakdown struct {
	Basic   int64 `json:"basic"`
	HRA     int64 `json:"hra"`
	Medical int64 `json:"medical"`
	Gross   int64 `json:"gross"`
}

// ComputeSalary derives the salary composition of a grade from the salary of
// the base grade (rank 6). Each allowance is rounded to a whole minor unit
// before the gross is summed.
func ComputeSalary(rank int, baseSalary int64) (SalaryBreakdown, error) {
	if !IsValidRank(rank) {
		return SalaryBreakdown{}, fmt.Errorf("%w: got %d", ErrInvalidGrade, rank)
	}
	if baseSalary < 0 {
		return SalaryBreakdown{}, ErrNegativeBaseSalary
	}
	if baseSalary > MaxBaseSalary {
		return SalaryBreakdown{}, fmt.Errorf("%w: maximum is %d", ErrBaseSalaryTooLarge, MaxBaseSalary)
	}

	basic := baseSalary + int64(MaxRank-rank)*StepPerGrade
	basicDec := decimal.NewFromInt(basic)

	hra := basicDec.Mul(hraRate).Round(0).IntPart()
	medical := basicDec.Mul(medicalRate).Round(0).IntPart()

	return SalaryBreakdown{
		Basic:   basic,
		HRA:     hra,
		Medical: medical,
		Gross:   basic + hra + medical,
	}, nil
}

// RankSalary is the salary composition of one grade.
type RankSalary struct {
	Rank int `json:"rank"`
	SalaryBreakdown
}

// SalaryTable lists the salary of every grade for a base salary, most senior
// grade first.
func SalaryTable(baseSalary int64) ([]RankSalary, error) {
	table := make([]RankSalary, 0, MaxRank-MinRank+1)
	for rank := MinRank; rank <= MaxRank; rank++ {
		s, err := ComputeSalary(rank, baseSalary)
		if err != nil {
			return nil, err
		}
		table = append(table, RankSalary{Rank: rank, SalaryBreakdown: s})
	}
	return table, nil
}
