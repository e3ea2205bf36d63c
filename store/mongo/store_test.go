package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/steward/id"
	"github.com/xraph/steward/recurrence"
	"github.com/xraph/steward/timelog"
)

func TestTimeLogFilter(t *testing.T) {
	dom := id.NewDomicileID()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	before := from.AddDate(0, 1, 0)

	f := timeLogFilter(timelog.ListOpts{
		DomicileIDs: []id.DomicileID{dom},
		Status:      timelog.StatusApproved,
		StartFrom:   from,
		StartBefore: before,
	})

	if f["status"] != "APPROVED" {
		t.Errorf("status = %v", f["status"])
	}
	in, ok := f["domicile_id"].(bson.M)["$in"].([]string)
	if !ok || len(in) != 1 || in[0] != dom.String() {
		t.Errorf("domicile filter = %v", f["domicile_id"])
	}
	start := f["start_time"].(bson.M)
	if start["$gte"] != from || start["$lt"] != before {
		t.Errorf("start_time filter = %v", start)
	}
	if _, set := f["end_time"]; set {
		t.Error("end_time should be absent without EndBy")
	}
}

func TestTemplateModelCopiesDays(t *testing.T) {
	tpl := &recurrence.Template{
		ID:         id.NewTemplateID(),
		DomicileID: id.NewDomicileID(),
		Frequency:  recurrence.Weekly,
		DaysOfWeek: []int{1, 3, 5},
	}
	m := toTemplateModel(tpl)
	tpl.DaysOfWeek[0] = 6

	if m.DaysOfWeek[0] != 1 {
		t.Error("model aliases the template's day slice")
	}

	back, err := fromTemplateModel(m)
	if err != nil {
		t.Fatalf("fromTemplateModel: %v", err)
	}
	if back.ID != tpl.ID || len(back.DaysOfWeek) != 3 {
		t.Errorf("got %+v", back)
	}
}

func TestGenerationModelKey(t *testing.T) {
	tplID := id.NewTemplateID()
	key := recurrence.KeyFor(tplID, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	m := toGenerationModel(&recurrence.Generation{Key: key, TaskID: id.NewTaskID()})

	if m.Key != tplID.String()+"@2026-03-10" || m.Date != "2026-03-10" {
		t.Errorf("generation model = %+v", m)
	}
}
