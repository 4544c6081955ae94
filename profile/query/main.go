// Profiling:
// go build ./profile/query
// ./query && go tool pprof -http=":8000" -nodefraction=0.001 ./query cpu.pprof

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

type comp3 struct {
	V int64
	W int64
}

type shape struct {
	A borrowecs.Write[comp1]
	B borrowecs.Read[comp2]
	C borrowecs.Optional[comp3]
}

func main() {
	rounds := 20
	iters := 1000
	entities := 10000
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	q := borrowecs.MustDerive[shape]()
	for range rounds {
		w := borrowecs.NewWorld(numEntities)
		borrowecs.NewBuilder3[comp1, comp2, comp3](w).NewEntities(numEntities/2, comp1{}, comp2{V: 1, W: 1}, comp3{})
		borrowecs.NewBuilder2[comp1, comp2](w).NewEntities(numEntities/2, comp1{}, comp2{V: 1, W: 1})

		for range iters {
			f := borrowecs.NewFilter(w, q)
			for f.Next() {
				s := f.Get()
				a, b := s.A.Get(), s.B.Get()
				a.V += b.V
				a.W += b.W
			}
		}
	}
}
