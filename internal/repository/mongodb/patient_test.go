package mongodb

import (
	"context"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jwalitptl/hairline-crm/internal/config"
	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/repository"
	"github.com/jwalitptl/hairline-crm/internal/repository/memory"
)

var (
	march1  = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	march31 = time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)
)

func at(month time.Month, day int) *time.Time {
	t := time.Date(2024, month, day, 10, 0, 0, 0, time.UTC)
	return &t
}

// samples returns one patient inside March on every date field and one outside.
func samples() []*model.Patient {
	return []*model.Patient{
		{
			Personal: model.Personal{Name: "inside", Phone: "9000000001", Location: model.BranchDelhi, VisitDate: at(time.March, 10)},
			Surgery:  model.Surgery{SurgeryDate: at(time.March, 20)},
			Payments: model.Payments{Transactions: []model.Transaction{{Date: *at(time.March, 5), Method: model.PaymentUPI, Amount: 5000}}},
			Ops:      model.Ops{Status: model.StatusReady, CreatedAt: *at(time.March, 15)},
		},
		{
			Personal: model.Personal{Name: "outside", Phone: "9000000002", Location: model.BranchMumbai},
			Surgery:  model.Surgery{SurgeryDate: at(time.April, 10)},
			Payments: model.Payments{Transactions: []model.Transaction{}},
			Ops:      model.Ops{Status: model.StatusNew, CreatedAt: *at(time.February, 1)},
		},
	}
}

var filterTests = []struct {
	name  string
	query model.PatientQuery
	want  bson.M
	match []string
}{
	{
		name:  "empty",
		query: model.PatientQuery{},
		want:  bson.M{},
		match: []string{"inside", "outside"},
	},
	{
		name:  "branch",
		query: model.PatientQuery{Branch: model.BranchDelhi},
		want:  bson.M{"personal.location": model.BranchDelhi},
		match: []string{"inside"},
	},
	{
		name:  "created range",
		query: model.PatientQuery{CreatedFrom: march1, CreatedTo: march31},
		want:  bson.M{"ops.createdAt": bson.M{"$gte": march1, "$lte": march31}},
		match: []string{"inside"},
	},
	{
		name:  "created from only",
		query: model.PatientQuery{CreatedFrom: march1},
		want:  bson.M{"ops.createdAt": bson.M{"$gte": march1}},
		match: []string{"inside"},
	},
	{
		name:  "visit range",
		query: model.PatientQuery{VisitFrom: march1, VisitTo: march31},
		want:  bson.M{"personal.visitDate": bson.M{"$gte": march1, "$lte": march31}},
		match: []string{"inside"},
	},
	{
		name:  "surgery to only",
		query: model.PatientQuery{SurgeryTo: march31},
		want:  bson.M{"surgery.surgeryDate": bson.M{"$lte": march31}},
		match: []string{"inside"},
	},
	{
		name:  "transaction window",
		query: model.PatientQuery{TransactionsIn: &model.Window{From: march1, To: march31}},
		want: bson.M{"payments.transactions": bson.M{
			"$elemMatch": bson.M{"date": bson.M{"$gte": march1, "$lte": march31}},
		}},
		match: []string{"inside"},
	},
	{
		name:  "open transaction window",
		query: model.PatientQuery{TransactionsIn: &model.Window{}},
		want:  bson.M{"payments.transactions": bson.M{"$elemMatch": bson.M{}}},
		match: []string{"inside"},
	},
	{
		name:  "combined",
		query: model.PatientQuery{Branch: model.BranchMumbai, CreatedTo: march1},
		want: bson.M{
			"personal.location": model.BranchMumbai,
			"ops.createdAt":     bson.M{"$lte": march1},
		},
		match: []string{"outside"},
	},
}

func names(patients []*model.Patient) []string {
	out := make([]string, 0, len(patients))
	for _, p := range patients {
		out = append(out, p.Personal.Name)
	}
	sort.Strings(out)
	return out
}

func TestBuildPatientFilter(t *testing.T) {
	for _, tt := range filterTests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPatientFilter(tt.query))

			var matched []*model.Patient
			for _, p := range samples() {
				if memory.Matches(tt.query, p) {
					matched = append(matched, p)
				}
			}
			assert.Equal(t, tt.match, names(matched))
		})
	}
}

func TestBuildListQuery(t *testing.T) {
	filter, opts := BuildListQuery(model.PatientFilters{Location: model.BranchHyderabad, Status: model.StatusReady, Limit: 100})
	assert.Equal(t, bson.M{"personal.location": model.BranchHyderabad, "ops.status": model.StatusReady}, filter)
	assert.Equal(t, bson.D{{Key: "ops.createdAt", Value: -1}}, opts.Sort)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(100), *opts.Limit)

	filter, opts = BuildListQuery(model.PatientFilters{})
	assert.Equal(t, bson.M{}, filter)
	assert.Nil(t, opts.Limit)
}

// testDB connects to the server named by CRM_TEST_MONGO_URI and gives each
// test its own database.
func testDB(t *testing.T) *DB {
	t.Helper()
	uri := os.Getenv("CRM_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CRM_TEST_MONGO_URI not set")
	}

	db, err := NewDB(context.Background(), config.DatabaseConfig{
		URI:                   uri,
		Name:                  "crm_test_" + primitive.NewObjectID().Hex(),
		ConnectTimeoutSeconds: 5,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		_ = db.db.Drop(ctx)
		_ = db.Close(ctx)
	})
	return db
}

func TestPatientRepositoryFind(t *testing.T) {
	repo := NewPatientRepository(testDB(t))
	ctx := context.Background()
	for _, p := range samples() {
		require.NoError(t, repo.Create(ctx, p))
	}

	for _, tt := range filterTests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.Find(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.match, names(found))
		})
	}
}

func TestPatientRepositoryList(t *testing.T) {
	repo := NewPatientRepository(testDB(t))
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 105; i++ {
		require.NoError(t, repo.Create(ctx, &model.Patient{
			Personal: model.Personal{Name: "p", Phone: "9000000000", Location: model.BranchDelhi},
			Ops:      model.Ops{Status: model.StatusNew, CreatedAt: base.Add(time.Duration(i) * time.Hour)},
		}))
	}

	list, err := repo.List(ctx, model.PatientFilters{Limit: 100})
	require.NoError(t, err)
	require.Len(t, list, 100)
	assert.True(t, list[0].Ops.CreatedAt.Equal(base.Add(104*time.Hour)))
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].Ops.CreatedAt.After(list[i-1].Ops.CreatedAt))
	}

	list, err = repo.List(ctx, model.PatientFilters{Location: model.BranchMumbai, Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPatientRepositoryAddTransaction(t *testing.T) {
	repo := NewPatientRepository(testDB(t))
	ctx := context.Background()

	p := &model.Patient{
		Personal: model.Personal{Name: "payer", Phone: "9000000000"},
		Payments: model.Payments{TotalQuoted: 100000, AmountReceived: 10000, PendingAmount: 90000, Transactions: []model.Transaction{}},
		Ops:      model.Ops{Status: model.StatusNew, CreatedAt: paidAt()},
	}
	require.NoError(t, repo.Create(ctx, p))

	updated, err := repo.AddTransaction(ctx, p.ID, model.Transaction{Date: paidAt(), Method: model.PaymentCash, Amount: 15000})
	require.NoError(t, err)
	assert.Equal(t, 25000.0, updated.Payments.AmountReceived)
	assert.Equal(t, 75000.0, updated.Payments.PendingAmount)
	assert.Len(t, updated.Payments.Transactions, 1)

	_, err = repo.AddTransaction(ctx, primitive.NewObjectID(), model.Transaction{Date: paidAt(), Method: model.PaymentCash, Amount: 1})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func paidAt() time.Time {
	return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
}
