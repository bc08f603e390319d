package testdata

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/getflash/salesops/pkg/domain"
	"github.com/getflash/salesops/pkg/models"
)

var territories = []string{
	"Kingston", "St. Andrew", "St. Catherine", "Clarendon", "Manchester",
	"St. Elizabeth", "Westmoreland", "Hanover", "St. James", "Trelawny",
	"St. Ann", "St. Mary", "Portland", "St. Thomas",
}

var needs = []string{
	"POS integration", "Faster settlement", "Lower card fees",
	"Online payments", "Payroll disbursement", "Invoice tracking",
}

// GenerateSubmission produces one realistic fake submission. Pass a
// non-empty username to pin the owning rep, or "" for a random one.
func GenerateSubmission(username string) models.Submission {
	if username == "" {
		username = gofakeit.Username()
	}

	interest := gofakeit.Number(0, 5)
	signedUp := interest >= 4 && gofakeit.Bool()

	sub := models.Submission{
		ID:            domain.NewID(),
		OwnerName:     gofakeit.Company(),
		InterestLevel: interest,
		PackageSeen:   gofakeit.Bool(),
		SignedUp:      signedUp,
		SpecificNeeds: gofakeit.RandomString(needs),
		Username:      username,
		Territory:     gofakeit.RandomString(territories),
		Timestamp:     gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now()),
	}

	if gofakeit.Bool() {
		sub.PhoneNumber = gofakeit.Phone()
	}
	if gofakeit.Bool() {
		sub.DecisionMakers = gofakeit.Name()
	}
	if signedUp {
		sub.LeadStatus = models.LeadStatusSignedUp
	}

	return sub
}

// GenerateSubmissions produces n fake submissions.
func GenerateSubmissions(n int) []models.Submission {
	subs := make([]models.Submission, 0, n)
	for i := 0; i < n; i++ {
		subs = append(subs, GenerateSubmission(""))
	}
	return subs
}
