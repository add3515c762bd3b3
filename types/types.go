package types

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventProposalRegisteredType  = "network_proposal_registered"
	EventProposalVotedType       = "network_proposal_voted"
	EventProposalCanceledType    = "network_proposal_canceled"
	EventProposalApprovedType    = "network_proposal_approved"
	EventProposalDisapprovedType = "network_proposal_disapproved"
	EventNetworkValueChangedType = "network_value_changed"
	EventUpdateValidatorType     = "update_validator"
)

type EventProposalRegistered struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Type         uint64 `json:"type"`
	Value        string `json:"value"`
	Proposer     string `json:"proposer"`
	ProposerName string `json:"proposerName"`
	StartHeight  uint64 `json:"startHeight"`
	EndHeight    uint64 `json:"endHeight"`
}

func EncodeEventProposalRegistered(event *EventProposalRegistered) abci.Event {
	return abci.Event{
		Type: EventProposalRegisteredType,
		Attributes: []abci.EventAttribute{
			{Key: "id", Value: event.ID, Index: true},
			{Key: "proposer", Value: event.Proposer, Index: true},
			{Key: "proposerName", Value: event.ProposerName, Index: false},
			{Key: "title", Value: event.Title, Index: false},
			{Key: "description", Value: event.Description, Index: false},
			{Key: "type", Value: fmt.Sprintf("%v", event.Type), Index: true},
			{Key: "value", Value: event.Value, Index: false},
			{Key: "startHeight", Value: fmt.Sprintf("%v", event.StartHeight), Index: false},
			{Key: "endHeight", Value: fmt.Sprintf("%v", event.EndHeight), Index: false},
		},
	}
}

func DecodeEventProposalRegistered(originEvent abci.Event) *EventProposalRegistered {
	if originEvent.Type != EventProposalRegisteredType {
		return nil
	}
	event := &EventProposalRegistered{}
	for _, v := range originEvent.Attributes {
		var err error
		switch v.Key {
		case "id":
			event.ID = v.Value
		case "proposer":
			event.Proposer = v.Value
		case "proposerName":
			event.ProposerName = v.Value
		case "title":
			event.Title = v.Value
		case "description":
			event.Description = v.Value
		case "type":
			event.Type, err = strconv.ParseUint(v.Value, 10, 64)
		case "value":
			event.Value = v.Value
		case "startHeight":
			event.StartHeight, err = strconv.ParseUint(v.Value, 10, 64)
		case "endHeight":
			event.EndHeight, err = strconv.ParseUint(v.Value, 10, 64)
		}
		if err != nil {
			return nil
		}
	}
	return event
}

type EventProposalVoted struct {
	ID     string `json:"id"`
	Vote   uint64 `json:"vote"`
	Voter  string `json:"voter"`
	Amount string `json:"amount"`
}

func EncodeEventProposalVoted(event *EventProposalVoted) abci.Event {
	return abci.Event{
		Type: EventProposalVotedType,
		Attributes: []abci.EventAttribute{
			{Key: "id", Value: event.ID, Index: true},
			{Key: "vote", Value: fmt.Sprintf("%v", event.Vote), Index: false},
			{Key: "voter", Value: event.Voter, Index: true},
			{Key: "amount", Value: event.Amount, Index: false},
		},
	}
}

func DecodeEventProposalVoted(originEvent abci.Event) *EventProposalVoted {
	if originEvent.Type != EventProposalVotedType {
		return nil
	}
	event := &EventProposalVoted{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "id":
			event.ID = v.Value
		case "vote":
			vote, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Vote = vote
		case "voter":
			event.Voter = v.Value
		case "amount":
			event.Amount = v.Value
		}
	}
	return event
}

// EventProposalStatus is shared by the canceled, approved and disapproved
// events, which only differ in their type.
type EventProposalStatus struct {
	ID     string `json:"id"`
	Status uint64 `json:"status"`
}

func EncodeEventProposalStatus(event *EventProposalStatus) abci.Event {
	var typ string
	switch ProposalStatus(event.Status) {
	case ProposalStatusCanceled:
		typ = EventProposalCanceledType
	case ProposalStatusApproved:
		typ = EventProposalApprovedType
	default:
		typ = EventProposalDisapprovedType
	}
	return abci.Event{
		Type: typ,
		Attributes: []abci.EventAttribute{
			{Key: "id", Value: event.ID, Index: true},
			{Key: "status", Value: fmt.Sprintf("%v", event.Status), Index: false},
		},
	}
}

func DecodeEventProposalStatus(originEvent abci.Event) *EventProposalStatus {
	switch originEvent.Type {
	case EventProposalCanceledType, EventProposalApprovedType, EventProposalDisapprovedType:
	default:
		return nil
	}
	event := &EventProposalStatus{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "id":
			event.ID = v.Value
		case "status":
			status, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Status = status
		}
	}
	return event
}

type EventNetworkValueChanged struct {
	ID    string `json:"id"`
	Type  uint64 `json:"type"`
	Value string `json:"value"`
}

func EncodeEventNetworkValueChanged(event *EventNetworkValueChanged) abci.Event {
	return abci.Event{
		Type: EventNetworkValueChangedType,
		Attributes: []abci.EventAttribute{
			{Key: "id", Value: event.ID, Index: true},
			{Key: "type", Value: fmt.Sprintf("%v", event.Type), Index: true},
			{Key: "value", Value: event.Value, Index: false},
		},
	}
}

func DecodeEventNetworkValueChanged(originEvent abci.Event) *EventNetworkValueChanged {
	if originEvent.Type != EventNetworkValueChangedType {
		return nil
	}
	event := &EventNetworkValueChanged{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "id":
			event.ID = v.Value
		case "type":
			typ, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Type = typ
		case "value":
			event.Value = v.Value
		}
	}
	return event
}

type EventUpdateValidators struct {
	Updates []abci.ValidatorUpdate `json:"updates"`
}

func EncodeEventUpdateValidators(event *EventUpdateValidators) abci.Event {
	pks := make([]string, len(event.Updates))
	powers := make([]string, len(event.Updates))
	for i := range event.Updates {
		pks[i] = hex.EncodeToString(event.Updates[i].PubKey.GetEd25519())
		powers[i] = fmt.Sprintf("%v", event.Updates[i].Power)
	}
	return abci.Event{
		Type: EventUpdateValidatorType,
		Attributes: []abci.EventAttribute{
			{Key: "pks", Value: strings.Join(pks, ","), Index: false},
			{Key: "powers", Value: strings.Join(powers, ","), Index: false},
		},
	}
}

func DecodeEventUpdateValidators(originEvent abci.Event) *EventUpdateValidators {
	event := &EventUpdateValidators{
		Updates: []abci.ValidatorUpdate{},
	}
	pks := make([]string, 0)
	powers := make([]int64, 0)
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "pks":
			if v.Value != "" {
				pks = strings.Split(v.Value, ",")
			}
		case "powers":
			if v.Value == "" {
				continue
			}
			for _, powerStr := range strings.Split(v.Value, ",") {
				power, err := strconv.ParseInt(powerStr, 10, 64)
				if err != nil {
					return nil
				}
				powers = append(powers, power)
			}
		}
	}
	if len(pks) != len(powers) {
		return nil
	}
	for i := range pks {
		pk, err := hex.DecodeString(pks[i])
		if err != nil {
			return nil
		}
		event.Updates = append(event.Updates, abci.Ed25519ValidatorUpdate(pk, powers[i]))
	}
	return event
}
