package dao_test

import (
	"testing"

	"go.uber.org/zap"

	"github.com/neritic/functiond/config"
	"github.com/neritic/functiond/dao"
	"github.com/neritic/functiond/metadata/models"
)

func newTestDAO(t *testing.T) *dao.DataAccessLayer {
	t.Helper()
	conf := config.DatabaseConfiguration{Driver: "sqlite", Path: ":memory:"}
	d, identifier, err := dao.NewDataAccessLayer(conf, dao.WithLogger(zap.NewNop()))
	if err != nil {
		t.Fatalf("could not set up data access layer: %v", err)
	}
	if len(identifier) == 0 {
		t.Fatal("expected a database identifier")
	}
	t.Cleanup(func() { d.MetadataDB.Close() })
	return d
}

func newTestFunction() models.Function {
	return models.Function{
		CreatedBy: "tester",
		Name:      "hello",
		Route:     "/hello",
		Language:  models.LanguagePython,
		Timeout:   5,
		Runtime:   models.RuntimeRunc,
		Code:      models.ToNullString(`print("hello")`),
	}
}

func TestCreateAndGetFunction(t *testing.T) {
	d := newTestDAO(t)

	fn := newTestFunction()
	created, err := d.CreateFunction(&fn)
	if err != nil {
		t.Fatalf("CreateFunction failed: %v", err)
	}
	if len(created.GUID) != 32 {
		t.Errorf("expected 32 char guid, got %q", created.GUID)
	}
	if len(created.ChangeToken) == 0 {
		t.Error("expected a change token to be assigned")
	}

	fetched, err := d.GetFunction(created.GUID)
	if err != nil {
		t.Fatalf("GetFunction failed: %v", err)
	}
	if fetched.Name != "hello" || fetched.Code.String != `print("hello")` {
		t.Errorf("fetched function does not match: %+v", fetched)
	}

	byRoute, err := d.GetFunctionByRoute("/hello")
	if err != nil {
		t.Fatalf("GetFunctionByRoute failed: %v", err)
	}
	if byRoute.GUID != created.GUID {
		t.Errorf("expected same function by route")
	}
}

func TestGetFunctionNotFound(t *testing.T) {
	d := newTestDAO(t)
	if _, err := d.GetFunction("0123456789abcdef0123456789abcdef"); err != dao.ErrNoRows {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestUpdateFunctionChangeToken(t *testing.T) {
	d := newTestDAO(t)
	fn := newTestFunction()
	created, err := d.CreateFunction(&fn)
	if err != nil {
		t.Fatalf("CreateFunction failed: %v", err)
	}

	update := created
	update.Name = "hello2"
	update.ChangeToken = "stale"
	if _, err := d.UpdateFunction(&update); err != dao.ErrChangeTokenMismatch {
		t.Errorf("expected ErrChangeTokenMismatch, got %v", err)
	}

	update.ChangeToken = created.ChangeToken
	update.ModifiedBy = "tester2"
	updated, err := d.UpdateFunction(&update)
	if err != nil {
		t.Fatalf("UpdateFunction failed: %v", err)
	}
	if updated.Name != "hello2" {
		t.Errorf("expected updated name, got %q", updated.Name)
	}
	if updated.ChangeCount != created.ChangeCount+1 {
		t.Errorf("expected change count bump, got %d", updated.ChangeCount)
	}
	if updated.ChangeToken == created.ChangeToken {
		t.Error("expected a new change token")
	}
}

func TestDeleteFunction(t *testing.T) {
	d := newTestDAO(t)
	fn := newTestFunction()
	created, err := d.CreateFunction(&fn)
	if err != nil {
		t.Fatalf("CreateFunction failed: %v", err)
	}
	if err := d.DeleteFunction(created, "tester"); err != nil {
		t.Fatalf("DeleteFunction failed: %v", err)
	}
	if _, err := d.GetFunction(created.GUID); err != dao.ErrNoRows {
		t.Errorf("expected deleted function to be gone, got %v", err)
	}
	// deleting again reports not found
	if err := d.DeleteFunction(created, "tester"); err != dao.ErrNoRows {
		t.Errorf("expected ErrNoRows on repeat delete, got %v", err)
	}
}

func TestListFunctionsPaging(t *testing.T) {
	d := newTestDAO(t)
	for i := 0; i < 5; i++ {
		fn := newTestFunction()
		if _, err := d.CreateFunction(&fn); err != nil {
			t.Fatalf("CreateFunction failed: %v", err)
		}
	}
	page, err := d.GetFunctions(dao.PagingRequest{PageNumber: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("GetFunctions failed: %v", err)
	}
	if page.TotalRows != 5 || page.PageRows != 2 || page.PageCount != 3 {
		t.Errorf("unexpected paging: total=%d rows=%d pages=%d", page.TotalRows, page.PageRows, page.PageCount)
	}
}

func TestRecordExecutionAndMetrics(t *testing.T) {
	d := newTestDAO(t)
	fn := newTestFunction()
	created, err := d.CreateFunction(&fn)
	if err != nil {
		t.Fatalf("CreateFunction failed: %v", err)
	}

	if _, err := d.GetLatestMetricForFunction(created.GUID); err != dao.ErrNoRows {
		t.Errorf("expected ErrNoRows before any executions, got %v", err)
	}

	for i, runtime := range []string{models.RuntimeRunc, models.RuntimeRunsc} {
		metric := models.ExecutionMetric{
			FunctionGUID: created.GUID,
			FunctionName: created.Name,
			Runtime:      runtime,
			ResponseTime: int64(100 + i),
			Stdout:       models.ToNullString("hello"),
			MemoryUsage:  12.5,
			CPUUsage:     3.5,
		}
		if _, err := d.RecordExecution(&metric); err != nil {
			t.Fatalf("RecordExecution failed: %v", err)
		}
	}

	latest, err := d.GetLatestMetricForFunction(created.GUID)
	if err != nil {
		t.Fatalf("GetLatestMetricForFunction failed: %v", err)
	}
	if latest.Runtime != models.RuntimeRunsc || latest.ResponseTime != 101 {
		t.Errorf("expected the most recent metric, got %+v", latest)
	}

	history, err := d.GetMetricsForFunction(created.GUID, dao.PagingRequest{PageNumber: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("GetMetricsForFunction failed: %v", err)
	}
	if history.TotalRows != 2 || history.PageRows != 2 {
		t.Errorf("unexpected history paging: %+v", history.Resultset)
	}

	summary, err := d.GetMetricsSummary()
	if err != nil {
		t.Fatalf("GetMetricsSummary failed: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("expected 2 summary rows, got %d", len(summary))
	}
	if summary[0].FunctionName != "hello" || summary[0].Executions != 1 {
		t.Errorf("unexpected summary row: %+v", summary[0])
	}
}
