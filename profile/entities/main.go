// Profiling:
// go build ./profile/entities
// ./entities && go tool pprof -http=":8000" -nodefraction=0.001 ./entities mem.pprof

package main

import (
	"github.com/edwinsyarief/borrowecs"
	"github.com/pkg/profile"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

func main() {
	count := 50
	iters := 1000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	q := borrowecs.Join2(borrowecs.Write[comp1]{}, borrowecs.Read[comp2]{})
	for range rounds {
		w := borrowecs.NewWorld(numEntities)
		batch := borrowecs.NewBuilder2[comp1, comp2](w)

		for range iters {
			batch.NewEntities(numEntities, comp1{}, comp2{V: 1})
			var entities []borrowecs.EntityID
			for id, t := range borrowecs.All(w, q) {
				entities = append(entities, id)
				c1, c2 := t.Unpack()
				c1.Get().V += c2.Get().V
			}
			for _, e := range entities {
				w.RemoveEntity(e)
			}
		}
	}
}
