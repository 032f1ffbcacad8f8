//go:build android && cgo

// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package jnibridge

/*
#include <stdlib.h>
#include <jni.h>

static jint sl_get_java_vm(JNIEnv *env, JavaVM **vm) {
	return (*env)->GetJavaVM(env, vm);
}

static jint sl_get_env(JavaVM *vm, JNIEnv **env) {
	return (*vm)->GetEnv(vm, (void **)env, JNI_VERSION_1_6);
}

static jint sl_attach(JavaVM *vm, JNIEnv **env) {
	return (*vm)->AttachCurrentThread(vm, env, NULL);
}

static jint sl_detach(JavaVM *vm) {
	return (*vm)->DetachCurrentThread(vm);
}

// returns JNI_TRUE if an exception was pending (it is cleared)
static jboolean sl_check_clear(JNIEnv *env) {
	if ((*env)->ExceptionCheck(env)) {
		(*env)->ExceptionClear(env);
		return JNI_TRUE;
	}
	return JNI_FALSE;
}

static jclass sl_find_class(JNIEnv *env, const char *name) {
	return (*env)->FindClass(env, name);
}

static jobject sl_static_object_field(JNIEnv *env, jclass cls, const char *name, const char *sig) {
	jfieldID fid = (*env)->GetStaticFieldID(env, cls, name, sig);
	if (fid == NULL) {
		return NULL;
	}
	return (*env)->GetStaticObjectField(env, cls, fid);
}

static jmethodID sl_method_id(JNIEnv *env, jclass cls, const char *name, const char *sig) {
	return (*env)->GetMethodID(env, cls, name, sig);
}

static jobject sl_new_global_ref(JNIEnv *env, jobject obj) {
	return (*env)->NewGlobalRef(env, obj);
}

static void sl_delete_local_ref(JNIEnv *env, jobject obj) {
	(*env)->DeleteLocalRef(env, obj);
}

static jint sl_push_local_frame(JNIEnv *env, jint capacity) {
	return (*env)->PushLocalFrame(env, capacity);
}

static void sl_pop_local_frame(JNIEnv *env) {
	(*env)->PopLocalFrame(env, NULL);
}

static jstring sl_new_string(JNIEnv *env, const jchar *chars, jsize len) {
	return (*env)->NewString(env, chars, len);
}

static void sl_call_void_method(JNIEnv *env, jobject obj, jmethodID mid, const jvalue *args) {
	(*env)->CallVoidMethodA(env, obj, mid, args);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/outrigdev/stdiolog/pkg/base"
	"github.com/outrigdev/stdiolog/pkg/bridge"
)

var errJavaException = errors.New("java exception")

type JNIBridge struct {
	vm *C.JavaVM
}

var _ bridge.Bridge = (*JNIBridge)(nil)

// New takes the JNIEnv* passed to the native method
func New(env unsafe.Pointer) (*JNIBridge, error) {
	if env == nil {
		return nil, errors.New("nil JNIEnv")
	}
	var vm *C.JavaVM
	if rc := C.sl_get_java_vm((*C.JNIEnv)(env), &vm); rc != C.JNI_OK {
		return nil, fmt.Errorf("GetJavaVM failed: %d", int(rc))
	}
	return &JNIBridge{vm: vm}, nil
}

func toJObject(ref bridge.Ref) C.jobject {
	return C.jobject(unsafe.Pointer(uintptr(ref)))
}

// withEnv runs fn with the calling thread's env; the thread must already be attached
func (b *JNIBridge) withEnv(fn func(env *C.JNIEnv) error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	var env *C.JNIEnv
	if rc := C.sl_get_env(b.vm, &env); rc != C.JNI_OK {
		return fmt.Errorf("GetEnv failed: %d (thread not attached?)", int(rc))
	}
	return fn(env)
}

func findClass(env *C.JNIEnv, className string) (C.jclass, error) {
	cname := C.CString(className)
	defer C.free(unsafe.Pointer(cname))
	cls := C.sl_find_class(env, cname)
	if C.sl_check_clear(env) == C.JNI_TRUE || cls == nil {
		return nil, fmt.Errorf("FindClass %s: %w", className, errJavaException)
	}
	return cls, nil
}

func (b *JNIBridge) ResolveSingleton(className string, fieldName string, fieldSig string) (bridge.Ref, error) {
	var rtn bridge.Ref
	err := b.withEnv(func(env *C.JNIEnv) error {
		cls, err := findClass(env, className)
		if err != nil {
			return err
		}
		defer C.sl_delete_local_ref(env, C.jobject(cls))
		cfield := C.CString(fieldName)
		defer C.free(unsafe.Pointer(cfield))
		csig := C.CString(fieldSig)
		defer C.free(unsafe.Pointer(csig))
		obj := C.sl_static_object_field(env, cls, cfield, csig)
		if C.sl_check_clear(env) == C.JNI_TRUE || obj == nil {
			return fmt.Errorf("static field %s %s: %w", fieldName, fieldSig, errJavaException)
		}
		defer C.sl_delete_local_ref(env, obj)
		global := C.sl_new_global_ref(env, obj)
		if global == nil {
			return errors.New("NewGlobalRef returned null")
		}
		rtn = bridge.Ref(uintptr(unsafe.Pointer(global)))
		return nil
	})
	return rtn, err
}

func (b *JNIBridge) ResolveMethod(className string, methodName string, methodSig string) (bridge.MethodID, error) {
	var rtn bridge.MethodID
	err := b.withEnv(func(env *C.JNIEnv) error {
		cls, err := findClass(env, className)
		if err != nil {
			return err
		}
		defer C.sl_delete_local_ref(env, C.jobject(cls))
		cname := C.CString(methodName)
		defer C.free(unsafe.Pointer(cname))
		csig := C.CString(methodSig)
		defer C.free(unsafe.Pointer(csig))
		mid := C.sl_method_id(env, cls, cname, csig)
		if C.sl_check_clear(env) == C.JNI_TRUE || mid == nil {
			return fmt.Errorf("method %s%s: %w", methodName, methodSig, errJavaException)
		}
		rtn = bridge.MethodID(uintptr(unsafe.Pointer(mid)))
		return nil
	})
	return rtn, err
}

// AcquireContext locks the goroutine to its thread, attaches it if it is not
// attached, and pushes a local frame. Release undoes all three.
func (b *JNIBridge) AcquireContext() (bridge.Context, error) {
	runtime.LockOSThread()
	ctx := &jniContext{vm: b.vm}
	rc := C.sl_get_env(b.vm, &ctx.env)
	if rc == C.JNI_EDETACHED {
		if rc = C.sl_attach(b.vm, &ctx.env); rc != C.JNI_OK {
			runtime.UnlockOSThread()
			return nil, fmt.Errorf("AttachCurrentThread failed: %d", int(rc))
		}
		ctx.attached = true
	} else if rc != C.JNI_OK {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("GetEnv failed: %d", int(rc))
	}
	if C.sl_push_local_frame(ctx.env, C.jint(base.BridgeLocalFrameCapacity)) != C.JNI_OK {
		C.sl_check_clear(ctx.env)
		ctx.detach()
		return nil, errors.New("PushLocalFrame failed")
	}
	return ctx, nil
}

type jniContext struct {
	vm       *C.JavaVM
	env      *C.JNIEnv
	attached bool
	released bool
}

func (c *jniContext) NewString(chars []uint16) (bridge.Ref, error) {
	var ptr *C.jchar
	if len(chars) > 0 {
		ptr = (*C.jchar)(unsafe.Pointer(&chars[0]))
	} else {
		var empty C.jchar
		ptr = &empty
	}
	str := C.sl_new_string(c.env, ptr, C.jsize(len(chars)))
	if C.sl_check_clear(c.env) == C.JNI_TRUE || str == nil {
		return 0, fmt.Errorf("NewString: %w", errJavaException)
	}
	return bridge.Ref(uintptr(unsafe.Pointer(str))), nil
}

func (c *jniContext) CallVoidMethod(instance bridge.Ref, method bridge.MethodID, args ...bridge.Ref) error {
	var argPtr *C.jvalue
	if len(args) > 0 {
		vals := make([]C.jvalue, len(args))
		for i, arg := range args {
			*(*C.jobject)(unsafe.Pointer(&vals[i])) = toJObject(arg)
		}
		argPtr = &vals[0]
	}
	mid := C.jmethodID(unsafe.Pointer(uintptr(method)))
	C.sl_call_void_method(c.env, toJObject(instance), mid, argPtr)
	if C.sl_check_clear(c.env) == C.JNI_TRUE {
		return errJavaException
	}
	return nil
}

func (c *jniContext) Release() {
	if c.released {
		return
	}
	c.released = true
	C.sl_pop_local_frame(c.env)
	c.detach()
}

func (c *jniContext) detach() {
	if c.attached {
		C.sl_detach(c.vm)
		c.attached = false
	}
	runtime.UnlockOSThread()
}
