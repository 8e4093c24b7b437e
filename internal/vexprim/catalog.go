package vexprim

import (
	"github.com/descent-ir/descent/internal/ir"
	"github.com/descent-ir/descent/internal/prim"
	"github.com/descent-ir/descent/internal/rewrite"
	"github.com/descent-ir/descent/internal/vex"
)

// PopulateOpPatterns registers the instruction-level lowerings: one
// pattern per vex op kind, none for the containers.
func PopulateOpPatterns(reg *rewrite.Registry) error {
	direct := []struct {
		src vex.Code
		dst prim.Code
	}{
		{vex.IAdd, prim.Add},
		{vex.ISub, prim.Sub},
		{vex.IMul, prim.Mul},
		{vex.SDiv, prim.SDiv},
		{vex.SRem, prim.SRem},
		{vex.UDiv, prim.UDiv},
		{vex.UMod, prim.URem},
		{vex.FAdd, prim.FAdd},
		{vex.FSub, prim.FSub},
		{vex.FMul, prim.FMul},
		{vex.FDiv, prim.FDiv},
		{vex.FRem, prim.FRem},
		{vex.FNeg, prim.FNeg},
		{vex.BitwiseAnd, prim.And},
		{vex.BitwiseOr, prim.Or},
		{vex.BitwiseXor, prim.Xor},
		{vex.BitCount, prim.CtPop},
		{vex.BitReverse, prim.BitReverse},
		{vex.Bitcast, prim.Bitcast},
		{vex.ConvertFToS, prim.FPToSI},
		{vex.ConvertFToU, prim.FPToUI},
		{vex.ConvertSToF, prim.SIToFP},
		{vex.ConvertUToF, prim.UIToFP},
		{vex.LogicalAnd, prim.And},
		{vex.LogicalOr, prim.Or},
		{vex.Select, prim.Select},
		{vex.Undef, prim.Undef},
		{vex.Constant, prim.Constant},
		{vex.Return, prim.Return},
		{vex.ReturnValue, prim.Return},
	}
	for _, d := range direct {
		if err := reg.Register(NewDirectPattern(d.src, d.dst)); err != nil {
			return err
		}
	}

	icmps := []struct {
		src  vex.Code
		pred prim.ICmpPred
	}{
		{vex.IEq, prim.IPredEq},
		{vex.INe, prim.IPredNe},
		{vex.SGt, prim.IPredSgt},
		{vex.SGe, prim.IPredSge},
		{vex.SLt, prim.IPredSlt},
		{vex.SLe, prim.IPredSle},
		{vex.UGt, prim.IPredUgt},
		{vex.UGe, prim.IPredUge},
		{vex.ULt, prim.IPredUlt},
		{vex.ULe, prim.IPredUle},
		{vex.LogicalEq, prim.IPredEq},
		{vex.LogicalNe, prim.IPredNe},
	}
	for _, c := range icmps {
		if err := reg.Register(NewIComparePattern(c.src, c.pred)); err != nil {
			return err
		}
	}

	fcmps := []struct {
		src  vex.Code
		pred prim.FCmpPred
	}{
		{vex.FOEq, prim.FPredOeq},
		{vex.FOGt, prim.FPredOgt},
		{vex.FOGe, prim.FPredOge},
		{vex.FOLt, prim.FPredOlt},
		{vex.FOLe, prim.FPredOle},
		{vex.FONe, prim.FPredOne},
		{vex.FUEq, prim.FPredUeq},
		{vex.FUGt, prim.FPredUgt},
		{vex.FUGe, prim.FPredUge},
		{vex.FULt, prim.FPredUlt},
		{vex.FULe, prim.FPredUle},
		{vex.FUNe, prim.FPredUne},
	}
	for _, c := range fcmps {
		if err := reg.Register(NewFComparePattern(c.src, c.pred)); err != nil {
			return err
		}
	}

	casts := []struct {
		src        vex.Code
		ext, trunc prim.Code
	}{
		{vex.FConvert, prim.FPExt, prim.FPTrunc},
		{vex.SConvert, prim.SExt, prim.Trunc},
		{vex.UConvert, prim.ZExt, prim.Trunc},
	}
	for _, c := range casts {
		if err := reg.Register(NewCastPattern(c.src, c.ext, c.trunc)); err != nil {
			return err
		}
	}

	shifts := []struct {
		src vex.Code
		dst prim.Code
	}{
		{vex.ShiftLeft, prim.Shl},
		{vex.ShiftRightArithmetic, prim.AShr},
		{vex.ShiftRightLogical, prim.LShr},
	}
	for _, s := range shifts {
		if err := reg.Register(NewShiftPattern(s.src, s.dst)); err != nil {
			return err
		}
	}

	for _, p := range []rewrite.Pattern{
		NewNotPattern(vex.Not),
		NewNotPattern(vex.LogicalNot),
		BitFieldInsertPattern{},
		BitFieldSExtractPattern{},
		BitFieldUExtractPattern{},
		FunctionCallPattern{},
	} {
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// PopulateFuncPatterns registers the function container lowering.
func PopulateFuncPatterns(reg *rewrite.Registry) error {
	return reg.Register(FuncPattern{})
}

// PopulateModulePatterns registers the module container lowerings.
func PopulateModulePatterns(reg *rewrite.Registry) error {
	if err := reg.Register(ModulePattern{}); err != nil {
		return err
	}
	return reg.Register(NewDirectPattern(vex.ModuleEnd, prim.ModuleEnd))
}

// PopulateAll registers every lowering pattern.
func PopulateAll(reg *rewrite.Registry) error {
	if err := PopulateOpPatterns(reg); err != nil {
		return err
	}
	if err := PopulateFuncPatterns(reg); err != nil {
		return err
	}
	return PopulateModulePatterns(reg)
}

// Lower converts the vex module rooted in g to prim in place.
func Lower(g *ir.Graph, opts ...rewrite.Option) error {
	reg := rewrite.NewRegistry()
	if err := PopulateAll(reg); err != nil {
		return err
	}
	return rewrite.Convert(g, NewConverter(), reg, prim.DialectName, opts...)
}
