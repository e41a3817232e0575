// Package stockflow provides a discrete-time stock-and-flow simulation engine.
//
// A [Model] holds named states (stocks) connected by transitions (flows). At
// every step each transition resolves its dependencies, computes a flow
// magnitude with its [Rule], debits the source and credits the destination:
//
//   - [State]: named quantity with a display colour
//   - [Transition]: directed flow with a rule and ordered [Dependency] list
//   - [Step]: one ordered pass over all transitions
//   - [Model.Run]: drives steps, records a [Trajectory], dispatches callbacks
//   - [Model.Copy]: independent clone for what-if scenarios
//
// # Example
//
//	m := stockflow.New("decay")
//	a := m.AddState("A", 100, "red")
//	b := m.AddState("B", 0, "blue")
//	m.AddTransition(a, b, rules.Proportional(0.1), stockflow.StateRef(a))
//	traj, _ := m.Run(3)
//
// Transitions execute sequentially within a step, so later transitions see
// values already updated by earlier ones. The order is set by
// [Model.SetRunOrder].
//
// # Thread Safety
//
// Model instances are NOT thread-safe. Run mutates state values in place and
// restores them afterwards. For parallel runs clone the model per run, or use
// [Ensemble] which does so.
package stockflow
