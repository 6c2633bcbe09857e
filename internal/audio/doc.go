// Package audio plays synthesized speech clips through the system speaker.
package audio
