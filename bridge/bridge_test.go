package bridge

import "testing"

func TestSendReceiveRoundTrip(t *testing.T) {
	b := New(4)
	if err := b.Send(Request{Kind: CreateThread, ThreadID: 1}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := b.ActiveThreads(); got != 1 {
		t.Fatalf("active threads = %d, want 1", got)
	}
	req, ok := b.Receive()
	if !ok || req.Kind != CreateThread || req.ThreadID != 1 {
		t.Fatalf("receive = %+v, ok=%v", req, ok)
	}
}

func TestDisconnectRejectsSendsWithoutEnqueueing(t *testing.T) {
	b := New(4)
	b.Disconnect()
	if err := b.Send(Request{Kind: SubmitWorkload}); err == nil {
		t.Fatalf("expected error sending on a disconnected bridge")
	}
	if _, ok := b.Receive(); ok {
		t.Fatalf("expected nothing enqueued after a disconnected send")
	}
}

func TestCompletionCountersTrackThreadLifecycle(t *testing.T) {
	b := New(4)
	if err := b.Send(Request{Kind: CreateThread}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := b.Complete(Completion{Kind: WorkloadComplete}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if b.CompletedWorkloads() != 1 {
		t.Fatalf("completed workloads = %d, want 1", b.CompletedWorkloads())
	}
	if err := b.Complete(Completion{Kind: ThreadStopped}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if b.ActiveThreads() != 0 {
		t.Fatalf("active threads = %d, want 0 after stop", b.ActiveThreads())
	}
}

func TestBacklogFullFailsWithoutBlocking(t *testing.T) {
	b := New(1)
	if err := b.Send(Request{Kind: SubmitWorkload}); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := b.Send(Request{Kind: SubmitWorkload}); err == nil {
		t.Fatalf("expected backlog-full error on second send")
	}
}
