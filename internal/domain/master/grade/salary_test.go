package grade

import (
	"errors"
	"testing"
)

func TestComputeSalary(t *testing.T) {
	cases := []struct {
		rank int
		base int64
		want SalaryBreakdown
	}{
		{6, 25000, SalaryBreakdown{Basic: 25000, HRA: 5000, Medical: 3750, Gross: 33750}},
		{4, 25000, SalaryBreakdown{Basic: 35000, HRA: 7000, Medical: 5250, Gross: 47250}},
		{1, 25000, SalaryBreakdown{Basic: 50000, HRA: 10000, Medical: 7500, Gross: 67500}},
		{6, 0, SalaryBreakdown{}},
		// 10001 * 0.20 = 2000.2 -> 2000, 10001 * 0.15 = 1500.15 -> 1500
		{6, 10001, SalaryBreakdown{Basic: 10001, HRA: 2000, Medical: 1500, Gross: 13501}},
		// 10010 * 0.15 = 1501.5 rounds half away from zero
		{6, 10010, SalaryBreakdown{Basic: 10010, HRA: 2002, Medical: 1502, Gross: 13514}},
	}
	for _, c := range cases {
		got, err := ComputeSalary(c.rank, c.base)
		if err != nil {
			t.Fatalf("ComputeSalary(%d, %d) returned error: %v", c.rank, c.base, err)
		}
		if got != c.want {
			t.Errorf("ComputeSalary(%d, %d) = %+v, want %+v", c.rank, c.base, got, c.want)
		}
	}
}

func TestComputeSalaryRejectsOutOfRangeGrades(t *testing.T) {
	for _, rank := range []int{-1, 0, 7, 100} {
		_, err := ComputeSalary(rank, 25000)
		if !errors.Is(err, ErrInvalidGrade) {
			t.Errorf("ComputeSalary(%d) error = %v, want ErrInvalidGrade", rank, err)
		}
	}
}

func TestComputeSalaryRejectsNegativeBase(t *testing.T) {
	_, err := ComputeSalary(6, -1)
	if !errors.Is(err, ErrNegativeBaseSalary) {
		t.Fatalf("expected ErrNegativeBaseSalary, got %v", err)
	}
}

func TestComputeSalaryMonotonicInRank(t *testing.T) {
	for _, base := range []int64{0, 1, 999, 25000, 123457, 9_999_999} {
		prev, err := ComputeSalary(MaxRank, base)
		if err != nil {
			t.Fatal(err)
		}
		for rank := MaxRank - 1; rank >= MinRank; rank-- {
			cur, err := ComputeSalary(rank, base)
			if err != nil {
				t.Fatal(err)
			}
			if cur.Basic < prev.Basic || cur.Gross < prev.Gross {
				t.Errorf("base %d: rank %d (%+v) pays less than rank %d (%+v)", base, rank, cur, rank+1, prev)
			}
			if cur.Gross != cur.Basic+cur.HRA+cur.Medical {
				t.Errorf("base %d rank %d: gross %d != basic+hra+medical", base, rank, cur.Gross)
			}
			prev = cur
		}
	}
}

func TestIsDownstream(t *testing.T) {
	if !IsDownstream(3, 4) || IsDownstream(3, 3) || IsDownstream(3, 2) {
		t.Fatal("IsDownstream must hold only for strictly higher rank numbers")
	}
}

func TestSalaryTable(t *testing.T) {
	table, err := SalaryTable(25000)
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != MaxRank {
		t.Fatalf("expected %d grades, got %d", MaxRank, len(table))
	}
	if table[0].Rank != MinRank || table[0].Gross != 67500 {
		t.Errorf("most senior grade = %+v", table[0])
	}
	if table[MaxRank-1].Basic != 25000 {
		t.Errorf("base grade basic = %d, want 25000", table[MaxRank-1].Basic)
	}

	if _, err := SalaryTable(-1); !errors.Is(err, ErrNegativeBaseSalary) {
		t.Errorf("expected ErrNegativeBaseSalary, got %v", err)
	}
}

func TestComputeSalaryRejectsOversizedBase(t *testing.T) {
	if _, err := ComputeSalary(6, MaxBaseSalary+1); !errors.Is(err, ErrBaseSalaryTooLarge) {
		t.Fatalf("expected ErrBaseSalaryTooLarge, got %v", err)
	}

	top, err := ComputeSalary(MinRank, MaxBaseSalary)
	if err != nil {
		t.Fatal(err)
	}
	if top.Gross <= top.Basic || top.Gross != top.Basic+top.HRA+top.Medical {
		t.Errorf("ComputeSalary(%d, MaxBaseSalary) = %+v", MinRank, top)
	}
}
