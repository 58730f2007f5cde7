package steps

import (
	"fmt"
	"time"

	"github.com/cucumber/godog"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/recurring/internal/domain/entity"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
	"github.com/finance-tracker/recurring/internal/integration/persistence/model"
	"github.com/finance-tracker/recurring/test/integration/mock"
)

func registerFixtureSteps(ctx *godog.ScenarioContext, t *testContext) {
	ctx.Given(`^I have (\d+) monthly payments "([^"]*)" of "([^"]*)" ending last month$`, t.iHaveMonthlyPayments)
	ctx.Given(`^I have an expense "([^"]*)" of "([^"]*)" on "([^"]*)"$`, t.iHaveAnExpense)
	ctx.Given(`^I have an income "([^"]*)" of "([^"]*)" on "([^"]*)"$`, t.iHaveAnExpense)
	ctx.Given(`^I have a bill pattern "([^"]*)" of "([^"]*)" starting "([^"]*)"$`, t.iHaveABillPattern)
	ctx.Given(`^the expense "([^"]*)" is linked to the pattern "([^"]*)"$`, t.theExpenseIsLinkedToThePattern)
}

func (t *testContext) iAmAuthenticatedAsANewUser() error {
	t.currentUserID = uuid.New()

	now := time.Now().UTC()
	accessClaims := jwt.MapClaims{
		"user_id":    t.currentUserID.String(),
		"email":      "test@example.com",
		"token_type": "access",
		"exp":        jwt.NewNumericDate(now.Add(15 * time.Minute)),
		"iat":        jwt.NewNumericDate(now),
		"nbf":        jwt.NewNumericDate(now),
		"iss":        "finance-tracker",
		"sub":        t.currentUserID.String(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(testJWTSecret))
	if err != nil {
		return fmt.Errorf("failed to generate access token: %w", err)
	}
	t.accessToken = accessToken
	return nil
}

// iHaveMonthlyPayments seeds payments on the 5th of each of the last count months.
// They are named "<description> 1" (oldest) to "<description> <count>".
func (t *testContext) iHaveMonthlyPayments(count int, description, amount string) error {
	now := time.Now().UTC()
	for i := 1; i <= count; i++ {
		date := mock.Date(now.Year(), now.Month()-time.Month(count-i+1), 5)
		name := fmt.Sprintf("%s %d", description, i)
		if err := t.seedTransaction(name, description, amount, date); err != nil {
			return err
		}
	}
	return nil
}

func (t *testContext) iHaveAnExpense(description, amount, date string) error {
	parsed, err := time.Parse(valueobject.DateLayout, date)
	if err != nil {
		return err
	}
	return t.seedTransaction(description, description, amount, parsed)
}

func (t *testContext) seedTransaction(name, description, amount string, date time.Time) error {
	tx := mock.Transaction(t.currentUserID, description, amount, date)
	if err := t.db.DbConn.Create(model.TransactionFromEntity(tx)).Error; err != nil {
		return fmt.Errorf("failed to seed transaction %q: %w", name, err)
	}
	t.transactions[name] = tx.ID
	return nil
}

func (t *testContext) iHaveABillPattern(name, amount, startDate string) error {
	start, err := time.Parse(valueobject.DateLayout, startDate)
	if err != nil {
		return err
	}
	baseAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}

	key := valueobject.NormalizeMerchant(name, nil)
	pattern := entity.NewBillPattern(t.currentUserID, name, key.String(), valueobject.FrequencyMonthly, baseAmount, start, nil, 0.9)
	if err := t.db.DbConn.Create(model.BillPatternFromEntity(pattern)).Error; err != nil {
		return fmt.Errorf("failed to seed bill pattern %q: %w", name, err)
	}
	t.patterns[name] = pattern.ID
	t.lastPatternID = pattern.ID
	return nil
}

// theExpenseIsLinkedToThePattern stores a confirmed occurrence the way pattern creation would.
func (t *testContext) theExpenseIsLinkedToThePattern(expense, pattern string) error {
	txID, ok := t.transactions[expense]
	if !ok {
		return fmt.Errorf("no transaction named %q", expense)
	}
	patternID, ok := t.patterns[pattern]
	if !ok {
		return fmt.Errorf("no bill pattern named %q", pattern)
	}

	var txModel model.TransactionModel
	if err := t.db.DbConn.First(&txModel, "id = ?", txID).Error; err != nil {
		return err
	}
	tx := txModel.ToEntity()
	tx.LinkToPattern(patternID, entity.SourcePatternCreation)
	if err := t.db.DbConn.Save(model.TransactionFromEntity(tx)).Error; err != nil {
		return err
	}
	return t.db.DbConn.Create(model.OccurrenceFromEntity(entity.NewLinkedOccurrence(patternID, tx))).Error
}
