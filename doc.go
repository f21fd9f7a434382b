// Package agentspace provides a workflow automation core for agent teams:
// a workflow engine with immutable pre-change versioning, an autonomy and
// approval layer keeping humans in the loop for risky agent actions, and a
// shared memory service giving agents durable cross-run context.
//
// The three services are exposed through the high-level Service façade:
//
//	srv, _ := agentspace.New()
//	rt := srv.Runtime()
//	rt.Start(ctx)
//	defer rt.Shutdown(ctx)
//
//	wf, _ := rt.Engine().Create(ctx, definition)
//	execID, _ := rt.Engine().Execute(ctx, wf.ID, nil)
//
// Everything runs in-memory by default; the store/pg package supplies the
// relational stores for durable deployments.
package agentspace
