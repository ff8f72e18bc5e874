package merkle

import (
	"sort"

	"github.com/jamstate/jamnode/internal/codec"
	"github.com/jamstate/jamnode/internal/jamtypes"
	"github.com/jamstate/jamnode/internal/state"
	"github.com/jamstate/jamnode/internal/statekey"
)

// Build flattens s into a Merklisation dictionary: one entry per
// global component, plus per-service base/storage/preimage/lookup
// entries (spec.md §4.4).
func Build(s *state.State) *Dictionary {
	d := NewDictionary()

	d.Put(statekey.Component(statekey.ComponentAuthPools), encodeAuthPools(s.AuthPools))
	d.Put(statekey.Component(statekey.ComponentAuthQueue), encodeAuthQueue(s.AuthQueue))
	d.Put(statekey.Component(statekey.ComponentRecentHistory), encodeRecentHistory(s.RecentHistory))
	d.Put(statekey.Component(statekey.ComponentSafrole), encodeSafrole(s.Safrole))
	d.Put(statekey.Component(statekey.ComponentDisputes), encodeDisputes(s.Disputes))
	d.Put(statekey.Component(statekey.ComponentEntropy), encodeEntropy(s.Entropy))
	d.Put(statekey.Component(statekey.ComponentNextValidators), encodeValidators(s.NextValidators))
	d.Put(statekey.Component(statekey.ComponentCurrValidators), encodeValidators(s.CurrValidators))
	d.Put(statekey.Component(statekey.ComponentPrevValidators), encodeValidators(s.PrevValidators))
	d.Put(statekey.Component(statekey.ComponentAvailability), encodeAvailability(s.Availability))
	d.Put(statekey.Component(statekey.ComponentTimeslot), encodeTimeslot(s.Timeslot))
	d.Put(statekey.Component(statekey.ComponentPrivileges), encodePrivileges(s.Privileges))
	d.Put(statekey.Component(statekey.ComponentStatistics), encodeStatistics(s.Statistics))
	d.Put(statekey.Component(statekey.ComponentReadyQueue), encodeReadyQueue(s.ReadyQueue))
	d.Put(statekey.Component(statekey.ComponentAccumHistory), encodeAccumHistory(s.AccumHistory))

	for id, acc := range s.Services {
		d.Put(statekey.ServiceBase(id), encodeServiceBase(acc))
		acc.Storage.Scan(func(key string, value []byte) bool {
			d.Put(statekey.FromString(key), append([]byte(nil), value...))
			return true
		})
		acc.Preimages.Scan(func(key string, value []byte) bool {
			d.Put(statekey.FromString(key), append([]byte(nil), value...))
			return true
		})
		acc.PreimageLookup.Scan(func(key string, value state.PreimageStatus) bool {
			d.Put(statekey.FromString(key), encodePreimageStatus(value))
			return true
		})
	}
	return d
}

func encodeAuthPools(p state.AuthPools) []byte {
	e := codec.NewEncoder()
	e.PutSequenceLen(len(p))
	for _, pool := range p {
		jamtypes.EncodeHashSlice(e, pool)
	}
	return e.Bytes()
}

func encodeAuthQueue(q state.AuthQueue) []byte {
	e := codec.NewEncoder()
	e.PutSequenceLen(len(q))
	for _, queue := range q {
		jamtypes.EncodeHashSlice(e, queue)
	}
	return e.Bytes()
}

func encodeRecentHistory(h *state.RecentHistory) []byte {
	e := codec.NewEncoder()
	entries := h.Entries()
	e.PutSequenceLen(len(entries))
	for _, b := range entries {
		b.HeaderHash.EncodeJAM(e)
		b.StateRoot.EncodeJAM(e)
		b.BeefyRoot.EncodeJAM(e)
		e.PutSequenceLen(len(b.Reported))
		for _, r := range b.Reported {
			r.Hash.EncodeJAM(e)
			r.ExportsRoot.EncodeJAM(e)
		}
	}
	return e.Bytes()
}

func encodeSafrole(g *state.Safrole) []byte {
	e := codec.NewEncoder()
	e.PutSequenceLen(len(g.PendingValidators))
	jamtypes.EncodeValidatorSet(e, g.PendingValidators)
	e.PutSequenceLen(len(g.TicketAccumulator))
	for _, t := range g.TicketAccumulator {
		t.EncodeJAM(e)
	}
	e.PutSequenceLen(len(g.RingCommitment))
	e.PutRaw(g.RingCommitment)
	e.PutUnionTag(uint64(g.SlotAssignment.Mode))
	switch g.SlotAssignment.Mode {
	case state.SlotAssignmentTickets:
		for _, t := range g.SlotAssignment.Tickets {
			t.EncodeJAM(e)
		}
	case state.SlotAssignmentFallbackKeys:
		for _, k := range g.SlotAssignment.Keys {
			k.EncodeJAM(e)
		}
	}
	return e.Bytes()
}

func encodeDisputes(p *state.DisputesRecord) []byte {
	e := codec.NewEncoder()
	jamtypes.EncodeHashSlice(e, p.Good)
	jamtypes.EncodeHashSlice(e, p.Bad)
	jamtypes.EncodeHashSlice(e, p.Wonky)
	jamtypes.EncodeEd25519Slice(e, p.Offenders)
	return e.Bytes()
}

func encodeEntropy(eta state.Entropy) []byte {
	e := codec.NewEncoder()
	for _, h := range eta {
		h.EncodeJAM(e)
	}
	return e.Bytes()
}

func encodeValidators(set []jamtypes.ValidatorKey) []byte {
	e := codec.NewEncoder()
	jamtypes.EncodeValidatorSet(e, set)
	return e.Bytes()
}

func encodeAvailability(av state.Availability) []byte {
	e := codec.NewEncoder()
	for _, a := range av {
		e.PutOptional(a != nil, func(e *codec.Encoder) {
			a.Report.EncodeJAM(e)
			e.PutUint32(uint32(a.Timeout))
		})
	}
	return e.Bytes()
}

func encodeTimeslot(t jamtypes.TimeSlot) []byte {
	e := codec.NewEncoder()
	e.PutUint32(uint32(t))
	return e.Bytes()
}

func encodePrivileges(p *state.Privileges) []byte {
	e := codec.NewEncoder()
	e.PutUint32(uint32(p.Manager))
	e.PutUint32(uint32(p.Assign))
	e.PutUint32(uint32(p.Delegate))
	e.PutSequenceLen(len(p.AlwaysAccumulate))
	services := make([]jamtypes.ServiceID, 0, len(p.AlwaysAccumulate))
	for svc := range p.AlwaysAccumulate {
		services = append(services, svc)
	}
	sort.Slice(services, func(i, j int) bool { return services[i] < services[j] })
	for _, svc := range services {
		e.PutUint32(uint32(svc))
		e.PutVarint(p.AlwaysAccumulate[svc])
	}
	return e.Bytes()
}

func encodeStatistics(st *state.Statistics) []byte {
	e := codec.NewEncoder()
	e.PutSequenceLen(len(st.Validators))
	for _, v := range st.Validators {
		e.PutUint32(v.BlocksProduced)
		e.PutUint32(v.TicketsSubmitted)
		e.PutUint32(v.PreimagesProvided)
		e.PutUint64(v.PreimageBytes)
		e.PutUint32(v.GuaranteesSigned)
		e.PutUint32(v.AssurancesSigned)
	}
	e.PutSequenceLen(len(st.Cores))
	for _, c := range st.Cores {
		e.PutUint32(c.ReportsGuaranteed)
		e.PutVarint(c.GasUsed)
		e.PutUint32(c.ImportedSegments)
		e.PutUint32(c.ExportedSegments)
	}
	return e.Bytes()
}

func encodeReadyQueue(q state.ReadyQueue) []byte {
	e := codec.NewEncoder()
	e.PutSequenceLen(len(q))
	for _, bucket := range q {
		e.PutSequenceLen(len(bucket))
		for _, item := range bucket {
			item.EncodeJAM(e)
		}
	}
	return e.Bytes()
}

func encodeAccumHistory(x state.AccumulationHistory) []byte {
	e := codec.NewEncoder()
	e.PutSequenceLen(len(x))
	for _, bucket := range x {
		jamtypes.EncodeHashSlice(e, bucket)
	}
	return e.Bytes()
}

func encodeServiceBase(a *state.ServiceAccount) []byte {
	e := codec.NewEncoder()
	a.CodeHash.EncodeJAM(e)
	e.PutVarint(a.Balance)
	e.PutVarint(a.MinGasAccumulate)
	e.PutVarint(a.MinGasTransfer)
	return e.Bytes()
}

func encodePreimageStatus(status state.PreimageStatus) []byte {
	e := codec.NewEncoder()
	putOptionalSlot(e, status.Provided)
	putOptionalSlot(e, status.Expired)
	putOptionalSlot(e, status.Forgotten)
	return e.Bytes()
}

func putOptionalSlot(e *codec.Encoder, slot *jamtypes.TimeSlot) {
	e.PutOptional(slot != nil, func(e *codec.Encoder) {
		e.PutUint32(uint32(*slot))
	})
}
