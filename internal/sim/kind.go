package sim

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when a kind name does not match any behavior tag.
var ErrUnknownKind = errors.New("sim: unknown kind")

// Class groups kinds by the collection that owns them.
type Class uint8

const (
	ClassCreature Class = iota
	ClassBoss
	ClassProjectile
	ClassHazard
	ClassCompanion
	ClassPortal
)

func (c Class) String() string {
	switch c {
	case ClassCreature:
		return "creature"
	case ClassBoss:
		return "boss"
	case ClassProjectile:
		return "projectile"
	case ClassHazard:
		return "hazard"
	case ClassCompanion:
		return "companion"
	case ClassPortal:
		return "portal"
	}
	return "unknown"
}

// Kind is the behavior tag of an entity. It selects the entry in the
// behavior table that advances the entity each frame.
type Kind uint8

const (
	KindNone Kind = iota

	// creatures
	KindBasic
	KindSnowie
	KindFireSpinner
	KindGhost
	KindSkeleton
	KindCaster
	KindDragon
	KindPhantom
	KindBomber
	KindNinja
	KindHealer
	KindMimic
	KindLoc
	KindBat
	KindNightmare
	KindDream
	KindIllusion
	KindWhiched
	KindCreak
	KindCreeper
	KindNeonZombie
	KindLunanua
	KindXYZ
	KindShadowGary

	// bosses
	KindSnowKing
	KindFlameWarden
	KindVortex
	KindSpinner
	KindRam
	KindTracker
	KindArtical
	KindShadow
	KindAlienKing
	KindMadackeda
	KindASD
	KindLexicon
	KindFrog
	KindGary

	// projectiles
	KindLaser
	KindFireball
	KindPurple
	KindSnake
	KindFang
	KindCrystal
	KindVoidBeam
	KindSurge
	KindBreath
	KindSpell

	// hazards
	KindVillage
	KindGusterBlock
	KindPumus
	KindStorm
	KindTrap
	KindTongue
	KindVoidZone
	KindIceWall
	KindFireRing
	KindLavaPool
	KindMiniVortex
	KindRock
	KindSpaceJail

	KindCompanion

	KindDimensionPortal
	KindElderPortal

	numKinds
)

type kindInfo struct {
	name  string
	class Class
}

var kinds = [numKinds]kindInfo{
	KindNone:            {"none", ClassCreature},
	KindBasic:           {"basic", ClassCreature},
	KindSnowie:          {"snowie", ClassCreature},
	KindFireSpinner:     {"firespinner", ClassCreature},
	KindGhost:           {"ghost", ClassCreature},
	KindSkeleton:        {"skeleton", ClassCreature},
	KindCaster:          {"caster", ClassCreature},
	KindDragon:          {"dragon", ClassCreature},
	KindPhantom:         {"phantom", ClassCreature},
	KindBomber:          {"bomber", ClassCreature},
	KindNinja:           {"ninja", ClassCreature},
	KindHealer:          {"healer", ClassCreature},
	KindMimic:           {"mimic", ClassCreature},
	KindLoc:             {"loc", ClassCreature},
	KindBat:             {"bat", ClassCreature},
	KindNightmare:       {"nightmare", ClassCreature},
	KindDream:           {"dream", ClassCreature},
	KindIllusion:        {"illusion", ClassCreature},
	KindWhiched:         {"whiched", ClassCreature},
	KindCreak:           {"creak", ClassCreature},
	KindCreeper:         {"creeper", ClassCreature},
	KindNeonZombie:      {"neonzombie", ClassCreature},
	KindLunanua:         {"lunanua", ClassCreature},
	KindXYZ:             {"xyz", ClassCreature},
	KindShadowGary:      {"shadowgary", ClassCreature},
	KindSnowKing:        {"snowking", ClassBoss},
	KindFlameWarden:     {"flamewarden", ClassBoss},
	KindVortex:          {"vortex", ClassBoss},
	KindSpinner:         {"spinner", ClassBoss},
	KindRam:             {"ram", ClassBoss},
	KindTracker:         {"tracker", ClassBoss},
	KindArtical:         {"artical", ClassBoss},
	KindShadow:          {"shadow", ClassBoss},
	KindAlienKing:       {"alienking", ClassBoss},
	KindMadackeda:       {"madackeda", ClassBoss},
	KindASD:             {"asd", ClassBoss},
	KindLexicon:         {"lexicon", ClassBoss},
	KindFrog:            {"frog", ClassBoss},
	KindGary:            {"gary", ClassBoss},
	KindLaser:           {"laser", ClassProjectile},
	KindFireball:        {"fireball", ClassProjectile},
	KindPurple:          {"purple", ClassProjectile},
	KindSnake:           {"snake", ClassProjectile},
	KindFang:            {"fang", ClassProjectile},
	KindCrystal:         {"crystal", ClassProjectile},
	KindVoidBeam:        {"voidbeam", ClassProjectile},
	KindSurge:           {"surge", ClassProjectile},
	KindBreath:          {"breath", ClassProjectile},
	KindSpell:           {"spell", ClassProjectile},
	KindVillage:         {"village", ClassHazard},
	KindGusterBlock:     {"gusterblock", ClassHazard},
	KindPumus:           {"pumus", ClassHazard},
	KindStorm:           {"storm", ClassHazard},
	KindTrap:            {"trap", ClassHazard},
	KindTongue:          {"tongue", ClassHazard},
	KindVoidZone:        {"voidzone", ClassHazard},
	KindIceWall:         {"icewall", ClassHazard},
	KindFireRing:        {"firering", ClassHazard},
	KindLavaPool:        {"lavapool", ClassHazard},
	KindMiniVortex:      {"minivortex", ClassHazard},
	KindRock:            {"rock", ClassHazard},
	KindSpaceJail:       {"spacejail", ClassHazard},
	KindCompanion:       {"companion", ClassCompanion},
	KindDimensionPortal: {"portal", ClassPortal},
	KindElderPortal:     {"elderportal", ClassPortal},
}

var kindByName map[string]Kind

func init() {
	kindByName = make(map[string]Kind, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		kindByName[kinds[k].name] = k
	}
}

func (k Kind) String() string {
	if k >= numKinds {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kinds[k].name
}

// Class returns the collection class for k.
func (k Kind) Class() Class {
	if k >= numKinds {
		return ClassCreature
	}
	return kinds[k].class
}

// ParseKind resolves a kind name such as "gary" or "snowking".
func ParseKind(name string) (Kind, error) {
	k, ok := kindByName[name]
	if !ok || k == KindNone {
		return KindNone, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	return k, nil
}

// KindSet is a fixed-size membership table indexed by Kind.
type KindSet [numKinds]bool

// Has reports whether k is in the set.
func (s *KindSet) Has(k Kind) bool { return k < numKinds && s[k] }

// NewKindSet builds a set from kind names.
func NewKindSet(names []string) (KindSet, error) {
	var set KindSet
	for _, n := range names {
		k, err := ParseKind(n)
		if err != nil {
			return set, err
		}
		set[k] = true
	}
	return set, nil
}

// Dimension is the ruleset context the run is currently in.
type Dimension uint8

const (
	DimNormal Dimension = iota
	DimDungeon
	DimElder
)

func (d Dimension) String() string {
	switch d {
	case DimDungeon:
		return "dungeon"
	case DimElder:
		return "elder"
	}
	return "normal"
}

// ParseDimension accepts "normal", "dungeon" or "elder".
func ParseDimension(s string) (Dimension, bool) {
	switch s {
	case "normal", "Normal", "":
		return DimNormal, true
	case "dungeon":
		return DimDungeon, true
	case "elder":
		return DimElder, true
	}
	return DimNormal, false
}
