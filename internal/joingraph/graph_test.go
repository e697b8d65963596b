package joingraph

import (
	"testing"
)

func TestGraph_AddTable_Idempotent(t *testing.T) {
	g := New()

	g.AddTable("customer")
	g.AddTable("customer")

	if g.TableCount() != 1 {
		t.Errorf("expected 1 table, got %d", g.TableCount())
	}
}

func TestGraph_AddJoin_InsertsTables(t *testing.T) {
	g := New()

	g.AddJoin("customer", "orders", "orders.o_custkey = customer.c_custkey", JoinLeft)

	if !g.HasTable("customer") || !g.HasTable("orders") {
		t.Error("expected both tables to be inserted")
	}
	if g.EdgeCount() != 1 {
		t.Errorf("expected 1 edge, got %d", g.EdgeCount())
	}
}

func TestGraph_JoinCondition_Symmetric(t *testing.T) {
	g := New()
	g.AddJoin("customer", "orders", "orders.o_custkey = customer.c_custkey", JoinInner)

	forward, ok := g.JoinCondition("customer", "orders")
	if !ok {
		t.Fatal("expected condition for (customer, orders)")
	}
	backward, ok := g.JoinCondition("orders", "customer")
	if !ok {
		t.Fatal("expected condition for (orders, customer)")
	}

	// Both orientations return the stored text unchanged.
	if forward.On != backward.On {
		t.Errorf("condition text differs by orientation: %q vs %q", forward.On, backward.On)
	}
	if forward.On != "orders.o_custkey = customer.c_custkey" {
		t.Errorf("condition text was altered: %q", forward.On)
	}
	if forward.Type != backward.Type || forward.Type != JoinInner {
		t.Errorf("join type differs by orientation: %q vs %q", forward.Type, backward.Type)
	}
}

func TestGraph_JoinCondition_Unknown(t *testing.T) {
	g := New()
	g.AddTable("customer")

	if _, ok := g.JoinCondition("customer", "orders"); ok {
		t.Error("expected no condition for unregistered pair")
	}
	if _, ok := g.JoinCondition("nope", "nada"); ok {
		t.Error("expected no condition for unknown tables")
	}
}

func TestGraph_AddJoin_DefaultType(t *testing.T) {
	g := New()
	g.AddJoin("a", "b", "a.id = b.a_id", "")

	cond, ok := g.JoinCondition("a", "b")
	if !ok {
		t.Fatal("expected condition")
	}
	if cond.Type != JoinLeft {
		t.Errorf("expected LEFT default, got %q", cond.Type)
	}
}

func TestGraph_FindJoinPath_TwoHops(t *testing.T) {
	g := New()
	g.AddJoin("customer", "orders", "orders.o_custkey = customer.c_custkey", JoinLeft)
	g.AddJoin("orders", "lineitem", "lineitem.l_orderkey = orders.o_orderkey", JoinLeft)

	path, ok := g.FindJoinPath("customer", "lineitem")
	if !ok {
		t.Fatal("expected a path")
	}

	want := []Edge{
		{From: "customer", To: "orders"},
		{From: "orders", To: "lineitem"},
	}
	if len(path) != len(want) {
		t.Fatalf("expected path of length %d, got %d", len(want), len(path))
	}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("step %d: expected %v, got %v", i, want[i], path[i])
		}
	}
}

func TestGraph_FindJoinPath_ChoosesShortest(t *testing.T) {
	g := New()
	// Long route: a -> b -> c -> d
	g.AddJoin("a", "b", "a.id = b.a_id", JoinLeft)
	g.AddJoin("b", "c", "b.id = c.b_id", JoinLeft)
	g.AddJoin("c", "d", "c.id = d.c_id", JoinLeft)
	// Shortcut: a -> d
	g.AddJoin("a", "d", "a.id = d.a_id", JoinLeft)

	path, ok := g.FindJoinPath("a", "d")
	if !ok {
		t.Fatal("expected a path")
	}
	if len(path) != 1 {
		t.Fatalf("expected shortest path of 1 edge, got %d: %v", len(path), path)
	}
}

func TestGraph_FindJoinPath_Deterministic(t *testing.T) {
	build := func() *Graph {
		g := New()
		g.AddJoin("a", "m1", "a.id = m1.a_id", JoinLeft)
		g.AddJoin("a", "m2", "a.id = m2.a_id", JoinLeft)
		g.AddJoin("m1", "z", "m1.id = z.m1_id", JoinLeft)
		g.AddJoin("m2", "z", "m2.id = z.m2_id", JoinLeft)
		return g
	}

	first, ok := build().FindJoinPath("a", "z")
	if !ok {
		t.Fatal("expected a path")
	}
	for i := 0; i < 20; i++ {
		again, ok := build().FindJoinPath("a", "z")
		if !ok {
			t.Fatal("expected a path")
		}
		if len(again) != len(first) {
			t.Fatalf("path length changed between runs: %d vs %d", len(first), len(again))
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("path changed between runs: %v vs %v", first, again)
			}
		}
	}
}

func TestGraph_FindJoinPath_Disconnected(t *testing.T) {
	g := New()
	g.AddJoin("a", "b", "a.id = b.a_id", JoinLeft)
	g.AddTable("island")

	if _, ok := g.FindJoinPath("a", "island"); ok {
		t.Error("expected no path to disconnected table")
	}
}

func TestGraph_FindJoinPath_UnknownTable(t *testing.T) {
	g := New()
	g.AddJoin("a", "b", "a.id = b.a_id", JoinLeft)

	if _, ok := g.FindJoinPath("a", "missing"); ok {
		t.Error("expected no path for unknown target")
	}
	if _, ok := g.FindJoinPath("missing", "a"); ok {
		t.Error("expected no path for unknown source")
	}
}

func TestGraph_FindJoinPath_SameTable(t *testing.T) {
	g := New()
	g.AddTable("a")

	path, ok := g.FindJoinPath("a", "a")
	if !ok {
		t.Fatal("expected trivial path")
	}
	if len(path) != 0 {
		t.Errorf("expected empty path, got %v", path)
	}
}

func TestGraph_RelatedTables(t *testing.T) {
	g := New()
	g.AddJoin("orders", "customer", "orders.o_custkey = customer.c_custkey", JoinLeft)
	g.AddJoin("orders", "lineitem", "lineitem.l_orderkey = orders.o_orderkey", JoinLeft)

	related := g.RelatedTables("orders")
	if len(related) != 2 {
		t.Fatalf("expected 2 neighbors, got %d", len(related))
	}
	if related[0] != "customer" || related[1] != "lineitem" {
		t.Errorf("expected sorted neighbors [customer lineitem], got %v", related)
	}

	if len(g.RelatedTables("unknown")) != 0 {
		t.Error("expected no neighbors for unknown table")
	}
}

func TestShortName(t *testing.T) {
	cases := map[string]string{
		"hive.default.orders": "orders",
		"default.orders":      "orders",
		"orders":              "orders",
	}
	for input, want := range cases {
		if got := ShortName(input); got != want {
			t.Errorf("ShortName(%q) = %q, want %q", input, got, want)
		}
	}
}
