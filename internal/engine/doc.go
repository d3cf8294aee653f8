// Package engine contains the game loop and simulation logic of the bakery.
//
// Every timer (production, play time, golden cookie spawn and bonus, threat
// polling, debuff and challenge deadlines) lives on one game-time Scheduler
// owned by the Engine. Game time only advances while the engine runs, so a
// pause freezes every deadline at once and a save stores them as game-time
// milliseconds.
package engine
