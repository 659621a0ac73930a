package shufflr_test

import (
	"context"
	"fmt"

	"github.com/ScapeQin/shufflr"
	"github.com/ScapeQin/shufflr/model"
)

func ExampleOpen() {
	ctx := context.Background()

	db, err := shufflr.Open() // in-memory backend
	if err != nil {
		panic(err)
	}
	defer db.Close()

	value, err := model.NewArray([]float32{0.5, 0.25, 0.125}, 3)
	if err != nil {
		panic(err)
	}
	err = db.Add(ctx, "takes/001", model.Item{
		Kind:   model.KindSample,
		Value:  value,
		Labels: map[string][]string{"chord": {"Amaj"}},
	})
	if err != nil {
		panic(err)
	}

	keys, err := db.Keys(ctx)
	if err != nil {
		panic(err)
	}
	enum, err := db.LabelEnum(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Println(keys)
	fmt.Println(enum["Amaj"])
	// Output:
	// [takes/001]
	// 0
}
