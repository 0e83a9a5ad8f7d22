// Package groqb builds GROQ queries together with the shape of their result
// and a parser that validates it.
//
// A chain starts at a Root and every method returns a new *Node; nodes are
// immutable and safe to share between goroutines.
//
//	reg := schema.MustRegistry(
//		schema.Document{Name: "person", Fields: []schema.Field{
//			schema.F("name", schema.String()),
//			schema.Opt("age", schema.Number()),
//		}},
//	)
//	q := groqb.New(reg)
//	people := q.Star().FilterByType("person").Order("name asc").Project(groqb.Projection{
//		{Key: "name", Value: validate.String()},
//		{Key: "age", Value: validate.Nullable[float64](validate.Number())},
//	})
//	people.Query() // *[_type == "person"] | order(name asc) { name, age }
//
// Selections the registry cannot satisfy never panic: the node carries a
// mismatch instead, reported by Node.Mismatches and Node.Check.
//
// Runner sends the query text to an Executor and parses the raw result.
// Validation failures are reported together as a *ValidationError:
//
//	1 Parsing Error:
//	result[0].name: Expected string, received 123
//
// Executors live under executor/: httpexec for the HTTP query API, fixture
// for canned answers, and instrument for Prometheus metrics around either.
package groqb
