package layout

import (
	"fmt"
	"testing"
)

func benchModel(b *testing.B, floors, roomsPerFloor, items int) *Model {
	b.Helper()
	m := NewModel(floors)
	rooms := make([]Location, 0, floors*roomsPerFloor)
	for f := 1; f <= floors; f++ {
		for r := 0; r < roomsPerFloor; r++ {
			id, err := m.AddRoom(f, RoomInput{Name: fmt.Sprintf("Room %d-%d", f, r)})
			if err != nil {
				b.Fatal(err)
			}
			rooms = append(rooms, Location{Floor: f, RoomID: id})
		}
	}
	names := []string{"Ceiling Fan", "PVC Conduit Pipe", "FR Wire 1.5", "Modular Switch", "MCB DP 32A"}
	for i := 0; i < items; i++ {
		p := Product{ID: fmt.Sprintf("p-%d", i), Name: names[i%len(names)], UnitPrice: float64(10 + i%90)}
		loc := Location{}
		if i%3 != 0 {
			loc = rooms[i%len(rooms)]
		}
		if _, err := m.AddItem(p, 1+i%4, loc); err != nil {
			b.Fatal(err)
		}
	}
	return m
}

func BenchmarkSummarize(b *testing.B) {
	items := benchModel(b, 4, 6, 2000).Items()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Summarize(items)
	}
}

func BenchmarkBreakdown(b *testing.B) {
	m := benchModel(b, 4, 6, 2000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Breakdown()
	}
}

func BenchmarkApply(b *testing.B) {
	m := benchModel(b, 4, 6, 500)
	target := m.Items()[0].ID
	room := m.Rooms(2)[0].ID
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Apply(m, AssignItem{ItemID: target, Floor: 2, RoomID: room}, SetQuantity{ItemID: target, Quantity: 3}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkClassify(b *testing.B) {
	c := DefaultClassifier()
	p := Product{Name: "Double door distribution board", Code: "DB-8W", Category: "Panels"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = c.Classify(p)
	}
}

func BenchmarkDocumentRoundTrip(b *testing.B) {
	m := benchModel(b, 3, 4, 300)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := FromDocument(m.Document()); err != nil {
			b.Fatal(err)
		}
	}
}
