package controller

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/kbukum/datakit/entity"
)

func accept(_ context.Context, s entity.Sample) (entity.Sample, bool, error) {
	return s, true, nil
}

func reject(_ context.Context, s entity.Sample) (entity.Sample, bool, error) {
	return entity.Sample{}, false, nil
}

func addOne(_ context.Context, s entity.Sample) (entity.Sample, bool, error) {
	return entity.Sample{Data: s.Data.(int) + 1, Label: s.Label}, true, nil
}

func TestChain_Empty(t *testing.T) {
	var c Chain
	in := entity.Sample{Data: 1, Label: "a"}
	out, ok, err := c.Apply(context.Background(), in)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if out != in {
		t.Errorf("empty chain must pass sample through, got %v", out)
	}
}

func TestChain_TransformsInOrder(t *testing.T) {
	c := Chain{Single(addOne), Single(addOne), Single(accept)}
	out, ok, err := c.Apply(context.Background(), entity.Sample{Data: 0})
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if out.Data != 2 {
		t.Errorf("expected 2, got %v", out.Data)
	}
}

func TestChain_RejectShortCircuits(t *testing.T) {
	ran := false
	after := Func(func(_ context.Context, s entity.Sample) (entity.Sample, bool, error) {
		ran = true
		return s, true, nil
	})
	c := Chain{Single(addOne), Single(reject), Single(after)}
	_, ok, err := c.Apply(context.Background(), entity.Sample{Data: 0})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected rejection")
	}
	if ran {
		t.Error("stages after a rejection must not run")
	}
}

func TestChain_ErrorAborts(t *testing.T) {
	boom := errors.New("controller blew up")
	failing := Func(func(_ context.Context, s entity.Sample) (entity.Sample, bool, error) {
		return entity.Sample{}, false, boom
	})
	c := Chain{Single(failing), Single(addOne)}
	_, ok, err := c.Apply(context.Background(), entity.Sample{Data: 0})
	if !errors.Is(err, boom) {
		t.Errorf("expected controller error, got %v", err)
	}
	if ok {
		t.Error("errored sample must not be accepted")
	}
}

func TestOneOf_PicksFromGroup(t *testing.T) {
	addTen := Func(func(_ context.Context, s entity.Sample) (entity.Sample, bool, error) {
		return entity.Sample{Data: s.Data.(int) + 10}, true, nil
	})
	addHundred := Func(func(_ context.Context, s entity.Sample) (entity.Sample, bool, error) {
		return entity.Sample{Data: s.Data.(int) + 100}, true, nil
	})

	c := Chain{OneOf(addTen, addHundred)}
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		out, ok, err := c.Apply(context.Background(), entity.Sample{Data: 0})
		if err != nil || !ok {
			t.Fatalf("ok=%v err=%v", ok, err)
		}
		v := out.Data.(int)
		if v != 10 && v != 100 {
			t.Fatalf("result %d not produced by either alternative", v)
		}
		seen[v] = true
	}
	if !seen[10] || !seen[100] {
		t.Errorf("expected both alternatives to be chosen over 200 runs, saw %v", seen)
	}
}

func TestOneOf_SeededPicksAreReproducible(t *testing.T) {
	addTen := Func(func(_ context.Context, s entity.Sample) (entity.Sample, bool, error) {
		return entity.Sample{Data: s.Data.(int) + 10}, true, nil
	})
	addHundred := Func(func(_ context.Context, s entity.Sample) (entity.Sample, bool, error) {
		return entity.Sample{Data: s.Data.(int) + 100}, true, nil
	})
	c := Chain{OneOf(addTen, addHundred)}

	run := func(seed int64) []int {
		rng := rand.New(rand.NewSource(seed))
		picks := make([]int, 0, 50)
		for i := 0; i < 50; i++ {
			out, ok, err := c.ApplyWith(context.Background(), rng, entity.Sample{Data: 0})
			if err != nil || !ok {
				t.Fatalf("ok=%v err=%v", ok, err)
			}
			picks = append(picks, out.Data.(int))
		}
		return picks
	}

	first := run(7)
	second := run(7)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("pick %d differs between runs with the same seed: %d vs %d", i, first[i], second[i])
		}
	}
}

func TestOneOf_Empty(t *testing.T) {
	c := Chain{OneOf()}
	in := entity.Sample{Data: 5}
	out, ok, err := c.Apply(context.Background(), in)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if out != in {
		t.Errorf("empty group should pass through, got %v", out)
	}
}
