package bitstream

import (
	"errors"
	"fmt"
	"math"
)

// ErrNumberOverflow is returned for math.MaxUint64, the one value PutNumber
// cannot represent, and for codes that decode past 64 bits.
var ErrNumberOverflow = errors.New("number exceeds Fibonacci code range")

// fib holds 1, 2, 3, 5, 8, ... up to the largest Fibonacci number that fits
// in a uint64.
var fib = func() []uint64 {
	f := []uint64{1, 2}
	for {
		a, b := f[len(f)-2], f[len(f)-1]
		if a > math.MaxUint64-b {
			return f
		}
		f = append(f, a+b)
	}
}()

// MaxNumberBits is the longest code PutNumber can emit.
var MaxNumberBits = len(fib) + 1

// zeckendorf marks in used the Fibonacci numbers summing to n+1 and returns
// the index of the largest one.
func zeckendorf(n uint64, used *[2]uint64) (int, error) {
	if n == math.MaxUint64 {
		return 0, ErrNumberOverflow
	}
	v := n + 1
	top := len(fib) - 1
	for fib[top] > v {
		top--
	}
	for i := top; i >= 0 && v > 0; i-- {
		if fib[i] <= v {
			v -= fib[i]
			used[i/64] |= 1 << (i % 64)
			i-- // Zeckendorf: never two consecutive Fibonacci numbers
		}
	}
	return top, nil
}

// NumberBits returns the number of bits PutNumber uses for n.
func NumberBits(n uint64) (int, error) {
	var used [2]uint64
	top, err := zeckendorf(n, &used)
	if err != nil {
		return 0, err
	}
	return top + 2, nil
}

func fibonacciOverflow(i int) error {
	return fmt.Errorf("%w: code longer than %d bits", ErrNumberOverflow, i)
}
