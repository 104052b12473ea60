package bmc

import (
	"sync"
	"testing"
)

func TestValidTransitionHappyPath(t *testing.T) {
	path := []SessionPhase{PhaseClosed, PhaseAuthCap, PhaseChallengeReq, PhaseActivateReq, PhaseSetPriv, PhaseActive, PhaseClosing, PhaseClosed}
	for i := 0; i+1 < len(path); i++ {
		if !validTransition(path[i], path[i+1]) {
			t.Fatalf("expected %v -> %v to be valid", path[i], path[i+1])
		}
	}
}

func TestValidTransitionRejectsSkippingSteps(t *testing.T) {
	if validTransition(PhaseAuthCap, PhaseActive) {
		t.Fatal("expected skipping setup steps to be rejected")
	}
	if validTransition(PhaseClosed, PhaseActive) {
		t.Fatal("expected closed -> active to be rejected")
	}
}

func TestValidTransitionAnySetupStepCanAbortToClosed(t *testing.T) {
	for _, p := range []SessionPhase{PhaseAuthCap, PhaseChallengeReq, PhaseActivateReq, PhaseSetPriv} {
		if !validTransition(p, PhaseClosed) {
			t.Fatalf("expected %v -> closed to be valid", p)
		}
	}
}

func TestStateMachineTransitionRejected(t *testing.T) {
	sm := &stateMachine{phase: PhaseClosed}
	if err := sm.transition(PhaseActive); err == nil {
		t.Fatal("expected invalid transition to error")
	}
	if sm.current() != PhaseClosed {
		t.Fatalf("phase = %v, want unchanged PhaseClosed", sm.current())
	}
}

func TestStateMachineConcurrentAccess(t *testing.T) {
	sm := &stateMachine{phase: PhaseClosed}
	if err := sm.transition(PhaseAuthCap); err != nil {
		t.Fatalf("transition: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sm.current()
		}()
	}
	wg.Wait()
	if sm.current() != PhaseAuthCap {
		t.Fatalf("phase = %v, want PhaseAuthCap", sm.current())
	}
}
